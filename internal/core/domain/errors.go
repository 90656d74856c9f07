package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError is an application error carrying a stable code.
//
// The code is what clients see in the response body and what HTTPStatus
// maps to a status line, unless Status overrides it.
type DomainError struct {
	Code    string // Error code (e.g., "error.bad")
	Message string // Human-readable message
	Details string // Optional additional details
	Status  int    // HTTP status; 0 means look up Code
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Status:  e.Status,
		Cause:   e.Cause,
	}
}

// WithStatus returns a copy of the error answered with status instead of
// the one its code maps to.
func (e *DomainError) WithStatus(status int) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Status:  status,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Status:  e.Status,
		Cause:   cause,
	}
}

// Request errors.
var (
	// ErrBadRequest marks a request the server refuses to process.
	ErrBadRequest = NewDomainError("error.bad", "bad request error")

	// ErrInvalidArgument is raised for an invalid input value.
	ErrInvalidArgument = NewDomainError("BAD", "invalid input value")

	// ErrUserException is an application-defined user error.
	ErrUserException = NewDomainError("USER-EX", "user error")

	// ErrTypeMismatch indicates a parameter could not be converted.
	ErrTypeMismatch = NewDomainError("error.type_mismatch", "type mismatch")

	// ErrValidation indicates a request body failed validation.
	ErrValidation = NewDomainError("error.validation", "validation failed")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = NewDomainError("error.not_found", "resource not found")

	// ErrUnavailable indicates the server cannot serve requests yet.
	ErrUnavailable = NewDomainError("error.unavailable", "service unavailable")

	// ErrRateLimited indicates the client exceeded its request budget.
	ErrRateLimited = NewDomainError("error.too_many_requests", "too many requests")
)

// Member and login errors.
var (
	// ErrMemberNotFound indicates no member has the requested id.
	ErrMemberNotFound = NewDomainError("member.not_found", "member not found")

	// ErrLoginFail indicates the login id or password did not match.
	ErrLoginFail = NewDomainError("login.fail", "login id or password mismatch")

	// ErrLoginRequired indicates the request needs an active session.
	ErrLoginRequired = NewDomainError("error.login_required", "login required")
)

// ErrInternal is the catch-all for failures the client cannot act on.
var ErrInternal = NewDomainError("EX", "internal error")

// statusByCode maps error codes to HTTP status codes.
var statusByCode = map[string]int{
	ErrBadRequest.Code:      http.StatusBadRequest,
	ErrInvalidArgument.Code: http.StatusBadRequest,
	ErrUserException.Code:   http.StatusBadRequest,
	ErrTypeMismatch.Code:    http.StatusBadRequest,
	ErrValidation.Code:      http.StatusBadRequest,
	ErrLoginFail.Code:       http.StatusBadRequest,
	ErrLoginRequired.Code:   http.StatusUnauthorized,
	ErrNotFound.Code:        http.StatusNotFound,
	ErrMemberNotFound.Code:  http.StatusNotFound,
	ErrRateLimited.Code:     http.StatusTooManyRequests,
	ErrUnavailable.Code:     http.StatusServiceUnavailable,
	ErrInternal.Code:        http.StatusInternalServerError,
}

// HTTPStatus returns the status code for an error code.
// Unknown codes map to 500.
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Resolve converts any error into the status, code and message a client
// should see. Errors that are not DomainErrors resolve to ErrInternal.
func Resolve(err error) (status int, code, message string) {
	var de *DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, ErrInternal.Code, ErrInternal.Message
	}
	message = de.Message
	if de.Details != "" {
		message += ": " + de.Details
	}
	if de.Status != 0 {
		return de.Status, de.Code, message
	}
	return HTTPStatus(de.Code), de.Code, message
}
