package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dklimov/circles/internal/domain"
	"github.com/dklimov/circles/internal/validation"
)

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, &domain.APIError{
		Code:    code,
		Message: message,
	})
}

// handleError maps domain errors to stable HTTP responses. Every
// business-rule outcome has a fixed status and code; nothing
// storage-specific leaks through.
func handleError(w http.ResponseWriter, err error) {
	var validationErr *validation.ValidationError
	var validationErrs validation.ValidationErrors

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, domain.ErrCodeValidationError, validationErr.Error())
	case errors.As(err, &validationErrs):
		respondError(w, http.StatusBadRequest, domain.ErrCodeValidationError, validationErrs.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, domain.ErrCodeResourceNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyMember):
		respondError(w, http.StatusConflict, domain.ErrCodeResourceAlreadyExists, domain.ErrAlreadyMember.Error())
	case errors.Is(err, domain.ErrAlreadyRequested):
		respondError(w, http.StatusConflict, domain.ErrCodeResourceAlreadyExists, domain.ErrAlreadyRequested.Error())
	case errors.Is(err, domain.ErrAlreadyOwner):
		respondError(w, http.StatusConflict, domain.ErrCodeResourceAlreadyExists, domain.ErrAlreadyOwner.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		respondError(w, http.StatusConflict, domain.ErrCodeResourceAlreadyExists, "already exists")
	case errors.Is(err, domain.ErrNotMember):
		respondError(w, http.StatusForbidden, domain.ErrCodePermissionDenied, domain.ErrNotMember.Error())
	case errors.Is(err, domain.ErrNotOwner):
		respondError(w, http.StatusForbidden, domain.ErrCodePermissionDenied, domain.ErrNotOwner.Error())
	case errors.Is(err, domain.ErrNotOwnerOrAdmin):
		respondError(w, http.StatusForbidden, domain.ErrCodePermissionDenied, domain.ErrNotOwnerOrAdmin.Error())
	case errors.Is(err, domain.ErrNotRequestOwner):
		respondError(w, http.StatusForbidden, domain.ErrCodePermissionDenied, domain.ErrNotRequestOwner.Error())
	case errors.Is(err, domain.ErrRequestNotPending):
		respondError(w, http.StatusConflict, domain.ErrCodeRequestNotPending, domain.ErrRequestNotPending.Error())
	case errors.Is(err, domain.ErrCannotDeleteOwner):
		respondError(w, http.StatusConflict, domain.ErrCodePermissionDenied, domain.ErrCannotDeleteOwner.Error())
	case errors.Is(err, domain.ErrCannotLeaveAsOwner):
		respondError(w, http.StatusConflict, domain.ErrCodePermissionDenied, domain.ErrCannotLeaveAsOwner.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid input")
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "unauthorized")
	default:
		respondError(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "internal server error")
	}
}

// decodeJSON decodes JSON from request body.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}
