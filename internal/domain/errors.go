package domain

import "errors"

// Common errors used throughout the application.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrAlreadyMember      = errors.New("already a member of the group")
	ErrAlreadyRequested   = errors.New("already requested to join the group")
	ErrAlreadyOwner       = errors.New("already the owner of the group")
	ErrNotMember          = errors.New("not a member of the group")
	ErrNotOwner           = errors.New("not the owner of the group")
	ErrNotOwnerOrAdmin    = errors.New("not an owner or admin of the group")
	ErrNotRequestOwner    = errors.New("only the request owner can view it")
	ErrRequestNotPending  = errors.New("request is no longer pending")
	ErrCannotDeleteOwner  = errors.New("cannot delete a group owner")
	ErrCannotLeaveAsOwner = errors.New("cannot leave the group as owner")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Error codes for standardized API error responses.
const (
	ErrCodeResourceNotFound      = "RESOURCE_NOT_FOUND"
	ErrCodeResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ErrCodePermissionDenied      = "PERMISSION_DENIED"
	ErrCodeRequestNotPending     = "REQUEST_NOT_PENDING"
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeValidationError       = "VALIDATION_ERROR"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// APIError represents an error response from the API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}
