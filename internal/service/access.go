package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
)

// Authorize returns ErrNotOwned unless the caller owns the row identified by
// ownerID or holds the admin role. callerUser is the stored user behind caller
// and may be nil for admins.
func Authorize(caller domain.Identity, callerUser *domain.User, ownerID uuid.UUID) error {
	if caller.IsAdmin() {
		return nil
	}
	if callerUser != nil && callerUser.ID == ownerID {
		return nil
	}
	return ErrNotOwned
}

// RequireAdmin returns ErrAdminRequired unless the caller holds the admin role.
func RequireAdmin(caller domain.Identity) error {
	if caller.IsAdmin() {
		return nil
	}
	return ErrAdminRequired
}

// resolveCaller loads the user named by the token subject. A subject whose
// user no longer exists fails authentication rather than reporting not found.
func resolveCaller(ctx context.Context, session store.Session, caller domain.Identity) (*domain.User, error) {
	user, err := session.Users().GetByName(ctx, caller.Name)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: user %q no longer exists", auth.ErrAuthenticationFailed, caller.Name)
		}
		return nil, err
	}
	return user, nil
}
