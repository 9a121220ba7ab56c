// Package outcome classifies service failures into the fixed set of outcome
// kinds reported at the API boundary.
package outcome

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/phrazzld/tasker-api/internal/platform/metrics"
	"github.com/phrazzld/tasker-api/internal/platform/postgres"
	"github.com/phrazzld/tasker-api/internal/redact"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
)

// Kind is the class of a failed operation.
type Kind int

// Outcome kinds in classification priority order.
const (
	NotFound Kind = iota + 1
	VersionConflict
	Conflict
	AuthenticationFailed
	AuthorizationDenied
	BadRequest
)

var kindNames = map[Kind]string{
	NotFound:             "not_found",
	VersionConflict:      "version_conflict",
	Conflict:             "conflict",
	AuthenticationFailed: "authentication_failed",
	AuthorizationDenied:  "authorization_denied",
	BadRequest:           "bad_request",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Outcome is a classified failure. Message is empty for kinds that carry no body.
type Outcome struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (o *Outcome) Error() string {
	if o.Message != "" {
		return o.Kind.String() + ": " + o.Message
	}
	return o.Kind.String()
}

// Unwrap returns the classified error.
func (o *Outcome) Unwrap() error {
	return o.Err
}

// HTTPStatus returns the status code written for the outcome.
func (o *Outcome) HTTPStatus() int {
	switch o.Kind {
	case NotFound:
		return http.StatusNotFound
	case VersionConflict, Conflict:
		return http.StatusConflict
	case AuthenticationFailed:
		return http.StatusUnauthorized
	case AuthorizationDenied:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// HasBody reports whether the outcome's message is written to the response.
func (o *Outcome) HasBody() bool {
	return o.Kind == NotFound || o.Kind == BadRequest
}

// Translate classifies err. The whole wrap chain, joined errors included, is
// inspected and the first matching rule in priority order wins. Translate
// returns nil for a nil error.
func Translate(err error) *Outcome {
	if err == nil {
		return nil
	}
	o := classify(err)
	metrics.ObserveOutcome(o.Kind.String())
	return o
}

func classify(err error) *Outcome {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return &Outcome{Kind: NotFound, Message: notFoundMessage(err), Err: err}
	case errors.Is(err, store.ErrVersionConflict):
		return &Outcome{Kind: VersionConflict, Err: err}
	case errors.Is(err, store.ErrDuplicate),
		postgres.IsUniqueViolation(err),
		errors.Is(err, service.ErrPasswordMismatch):
		return &Outcome{Kind: Conflict, Err: err}
	case errors.Is(err, auth.ErrAuthenticationFailed), auth.IsTokenError(err):
		return &Outcome{Kind: AuthenticationFailed, Err: err}
	case errors.Is(err, service.ErrNotOwned), errors.Is(err, service.ErrAdminRequired):
		return &Outcome{Kind: AuthorizationDenied, Err: err}
	}

	if msg, ok := postgres.DriverMessage(err); ok {
		return &Outcome{Kind: BadRequest, Message: msg, Err: err}
	}
	return &Outcome{Kind: BadRequest, Message: redact.Error(err), Err: err}
}

func notFoundMessage(err error) string {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) && errors.Is(storeErr, store.ErrNotFound) {
		return storeErr.Message
	}
	return "not found"
}
