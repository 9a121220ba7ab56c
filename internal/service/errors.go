package service

import "errors"

// Sentinel errors returned by the entity services. Callers match them with
// errors.Is; the outcome package classifies them for the API layer.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrAdminRequired indicates the operation is reserved for callers holding the admin role.
	// API layer should map this to HTTP 403 Forbidden.
	ErrAdminRequired = errors.New("admin role required")

	// ErrPasswordMismatch indicates the current password supplied to a password
	// change did not match the stored hash.
	// API layer should map this to HTTP 409 Conflict.
	ErrPasswordMismatch = errors.New("current password does not match")
)
