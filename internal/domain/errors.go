package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyMessage      = NewDomainError(ErrCodeValidation, "message cannot be empty")
	ErrInvalidEmail      = NewDomainError(ErrCodeValidation, "please enter a valid email address")
	ErrEmailRequired     = NewDomainError(ErrCodeValidation, "email is required")
	ErrInvalidRole       = NewDomainError(ErrCodeValidation, "invalid conversation role")
	ErrMissingSessionID  = NewDomainError(ErrCodeValidation, "session id is required")
	ErrEmptyQuery        = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrInvalidPagination = NewDomainError(ErrCodeValidation, "invalid pagination cursor")
)

// Not found errors
var (
	ErrSessionNotFound    = NewDomainError(ErrCodeNotFound, "chat session not found")
	ErrSubscriberNotFound = NewDomainError(ErrCodeNotFound, "subscriber not found")
)

// State errors
var (
	ErrSessionBusy = NewDomainError(ErrCodeConflict, "a reply is already being generated for this session")
)

// Availability errors
var (
	ErrStoreUnavailable = NewDomainError(ErrCodeUnavailable, "subscriber store not configured")
)
