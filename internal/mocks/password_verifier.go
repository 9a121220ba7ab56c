package mocks

import (
	"errors"
	"strings"
)

// MockPasswordVerifier implements auth.PasswordVerifier for testing
type MockPasswordVerifier struct {
	// ShouldSucceed determines whether the password comparison should succeed
	ShouldSucceed bool

	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	// CompareCalledWith stores the arguments passed to Compare for verification
	CompareCalledWith struct {
		HashedPassword string
		Password       string
	}

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

// Compare implements the auth.PasswordVerifier interface
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.CompareCalledWith.HashedPassword = hashedPassword
	m.CompareCalledWith.Password = password
	m.CompareCallCount++

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if m.ShouldSucceed {
		return nil
	}
	return errors.New("password mismatch")
}

// PlainHashPrefix marks hashes produced by PlainHasher.
const PlainHashPrefix = "plain:"

// PlainHasher is a reversible PasswordHasher and PasswordVerifier pair for
// tests that need real mismatch behavior without bcrypt's cost.
type PlainHasher struct {
	// HashErr, when set, is returned by Hash.
	HashErr error
}

// Hash implements auth.PasswordHasher.
func (h *PlainHasher) Hash(password string) (string, error) {
	if h.HashErr != nil {
		return "", h.HashErr
	}
	return PlainHashPrefix + password, nil
}

// Compare implements auth.PasswordVerifier.
func (h *PlainHasher) Compare(hashedPassword, password string) error {
	if !strings.HasPrefix(hashedPassword, PlainHashPrefix) ||
		strings.TrimPrefix(hashedPassword, PlainHashPrefix) != password {
		return errors.New("password mismatch")
	}
	return nil
}
