package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so errors carrying details still compare equal to the
// sentinel they were derived from.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrInvalidInput    = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrInvalidToken    = NewAPIError("INVALID_TOKEN", "Invalid or malformed meetup token", http.StatusUnauthorized)
	ErrNotFound        = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrMeetupNotFound  = NewAPIError("MEETUP_NOT_FOUND", "Meetup not found", http.StatusNotFound)
	ErrPartnerNotFound = NewAPIError("PARTNER_NOT_FOUND", "Partner not found in meetup", http.StatusNotFound)
	ErrMeetupClosed    = NewAPIError("MEETUP_CLOSED", "Meetup is completed and can no longer change", http.StatusConflict)
	ErrInternal        = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

func Wrap(err error, code, message string, status int) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error())
}

// WithDetails returns a copy of a sentinel carrying request specific details.
func WithDetails(base *APIError, details string) *APIError {
	return NewAPIError(base.Code, base.Message, base.Status, details)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
