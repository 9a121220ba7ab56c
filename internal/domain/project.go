package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project groups tasks. Project names are unique across all users.
type Project struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	UserID  uuid.UUID `json:"user_id"`
	Version int       `json:"version"`
	Created time.Time `json:"created"`
}

// NewProject creates a project owned by userID.
func NewProject(userID uuid.UUID, name string) (*Project, error) {
	project := &Project{
		ID:      uuid.New(),
		Name:    name,
		UserID:  userID,
		Version: 0,
		Created: Now(),
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}

	return project, nil
}

// Validate checks if the Project has valid data.
func (p *Project) Validate() error {
	if p.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if p.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	return validateName(p.Name)
}
