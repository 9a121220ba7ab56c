package outcome

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	id := uuid.MustParse("6f1e2a3b-4c5d-4e6f-8a9b-0c1d2e3f4a5b")
	notFound := store.NotFound("task", "get", id, store.ErrTaskNotFound)
	stale := store.Stale("task", id, 3)
	duplicate := store.NewStoreError("user", "create", "insert failed", store.ErrUserNameExists)
	uniquePg := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	checkPg := &pgconn.PgError{Code: "23514", Message: "new row violates check constraint \"tasks_title_check\""}

	tests := []struct {
		name    string
		err     error
		kind    Kind
		message string
		status  int
	}{
		{"store not found", fmt.Errorf("failed to retrieve task: %w", notFound), NotFound,
			"task with id 6f1e2a3b-4c5d-4e6f-8a9b-0c1d2e3f4a5b not found", http.StatusNotFound},
		{"sql no rows", sql.ErrNoRows, NotFound, "not found", http.StatusNotFound},
		{"stale version", fmt.Errorf("failed to update task: %w", stale), VersionConflict, "", http.StatusConflict},
		{"duplicate name", duplicate, Conflict, "", http.StatusConflict},
		{"raw unique violation", fmt.Errorf("insert: %w", uniquePg), Conflict, "", http.StatusConflict},
		{"password mismatch", service.ErrPasswordMismatch, Conflict, "", http.StatusConflict},
		{"authentication failed", auth.ErrAuthenticationFailed, AuthenticationFailed, "", http.StatusUnauthorized},
		{"expired token", fmt.Errorf("%w: exp", auth.ErrExpiredToken), AuthenticationFailed, "", http.StatusUnauthorized},
		{"not owned", service.ErrNotOwned, AuthorizationDenied, "", http.StatusForbidden},
		{"admin required", service.ErrAdminRequired, AuthorizationDenied, "", http.StatusForbidden},
		{"validation", fmt.Errorf("failed to create task: %w", domain.ErrEmptyTitle), BadRequest,
			"failed to create task: title cannot be empty", http.StatusBadRequest},
		{"driver error contributes only its message", store.NewStoreError("task", "create", "insert failed", checkPg),
			BadRequest, "new row violates check constraint \"tasks_title_check\"", http.StatusBadRequest},
		{"unknown error", errors.New("something odd"), BadRequest, "something odd", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Translate(tt.err)

			require.NotNil(t, o)
			assert.Equal(t, tt.kind, o.Kind)
			assert.Equal(t, tt.message, o.Message)
			assert.Equal(t, tt.status, o.HTTPStatus())
			assert.ErrorIs(t, o, tt.err)
		})
	}
}

func TestTranslate_Priority(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"not found beats version conflict", errors.Join(store.ErrVersionConflict, store.ErrUserNotFound), NotFound},
		{"version conflict beats conflict", errors.Join(store.ErrDuplicate, store.ErrVersionConflict), VersionConflict},
		{"conflict beats authentication", errors.Join(auth.ErrAuthenticationFailed, store.ErrDuplicate), Conflict},
		{"authentication beats authorization", errors.Join(service.ErrNotOwned, auth.ErrInvalidToken), AuthenticationFailed},
		{"authorization beats bad request", errors.Join(domain.ErrEmptyName, service.ErrNotOwned), AuthorizationDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, Translate(tt.err).Kind)
		})
	}
}

func TestTranslate_Nil(t *testing.T) {
	assert.Nil(t, Translate(nil))
}

func TestTranslate_SameOutcomeForBothLoginFailures(t *testing.T) {
	unknown := Translate(fmt.Errorf("login: %w", auth.ErrAuthenticationFailed))
	mismatch := Translate(auth.ErrAuthenticationFailed)

	assert.Equal(t, unknown.Kind, mismatch.Kind)
	assert.Equal(t, unknown.Message, mismatch.Message)
	assert.Equal(t, unknown.HTTPStatus(), mismatch.HTTPStatus())
}

func TestOutcome_Body(t *testing.T) {
	assert.True(t, (&Outcome{Kind: NotFound}).HasBody())
	assert.True(t, (&Outcome{Kind: BadRequest}).HasBody())
	assert.False(t, (&Outcome{Kind: Conflict}).HasBody())
	assert.False(t, (&Outcome{Kind: AuthenticationFailed}).HasBody())
	assert.Equal(t, "conflict", (&Outcome{Kind: Conflict}).Error())
	assert.Equal(t, "unknown", Kind(0).String())
}
