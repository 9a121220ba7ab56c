package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/outcome"
)

// HandleAPIError translates err into its outcome and writes the matching
// response. Only NotFound and BadRequest outcomes carry a body.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	o := outcome.Translate(err)
	if o == nil {
		shared.RespondWithStatus(w, http.StatusNoContent)
		return
	}

	message := ""
	if o.HasBody() {
		message = o.Message
	}
	shared.RespondWithErrorAndLog(w, r, o.HTTPStatus(), message, err)
}

// handleInvalidRequest answers a body that could not be decoded or validated.
func handleInvalidRequest(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}

// SanitizeValidationError removes sensitive details from decode and validation
// errors and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		messages := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			messages = append(messages,
				fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag())))
		}
		return strings.Join(messages, "; ")
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}

	return "Invalid request format"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte":
		return "too small"
	case "dive", "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
