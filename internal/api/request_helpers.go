package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/service/auth"
)

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// callerFromRequest returns the identity placed in the context by the
// authentication middleware. It writes a 401 and returns false when there is none.
func callerFromRequest(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	caller, ok := shared.GetIdentity(r.Context())
	if !ok {
		HandleAPIError(w, r, auth.ErrMissingToken)
		return domain.Identity{}, false
	}
	return caller, true
}

// callerAndPathID combines callerFromRequest with getPathUUID for the "id"
// parameter. It writes the error response itself.
func callerAndPathID(w http.ResponseWriter, r *http.Request) (domain.Identity, uuid.UUID, bool) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return domain.Identity{}, uuid.Nil, false
	}
	id, err := getPathUUID(r, "id")
	if err != nil {
		handleInvalidRequest(w, r, err)
		return domain.Identity{}, uuid.Nil, false
	}
	return caller, id, true
}

// decodeRequest decodes and validates the JSON body into v. It writes a 400
// and returns false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		handleInvalidRequest(w, r, err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		handleInvalidRequest(w, r, err)
		return false
	}
	return true
}
