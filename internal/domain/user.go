package domain

import (
	"errors"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Role names understood by the access rules.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyName           = errors.New("name cannot be empty")
	ErrNameTooLong         = errors.New("name must be at most 255 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

const maxNameLength = 255

// User is an account that owns tasks and projects.
// The stored password hash never leaves the service layer.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Password       string    `json:"-"` // Plaintext password, only set on create or password change
	HashedPassword string    `json:"-"`
	Roles          []string  `json:"roles"`
	Version        int       `json:"version"`
	Created        time.Time `json:"created"`
}

// NewUser creates a new User with the given name, plaintext password and roles.
// The user gets a fresh ID, version 0 and a creation timestamp. A user without
// roles is given the plain user role.
//
// The caller is responsible for hashing the password before storing the user.
func NewUser(name, password string, roles []string) (*User, error) {
	user := &User{
		ID:       uuid.New(),
		Name:     name,
		Password: password,
		Roles:    NormalizeRoles(roles),
		Version:  0,
		Created:  Now(),
	}
	if len(user.Roles) == 0 {
		user.Roles = []string{RoleUser}
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if err := validateName(u.Name); err != nil {
		return err
	}

	if u.Password != "" {
		// bcrypt ignores everything after 72 bytes
		if len(u.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// NormalizeRoles turns a list of role names into a sorted set without blanks.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}
