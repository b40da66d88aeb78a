// Package domain defines the core domain models for branchweb.
package domain

import (
	"errors"
	"fmt"
)

// DomainError is a business error with a structured code and the envelope
// status a request failing with it should be answered with.
type DomainError struct {
	Code    string // Error code (e.g., "BW-USER-4090")
	Message string // Message safe to show to clients
	Details string // Optional additional details, logged only
	Status  Status // Envelope status for the client
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError.
func NewDomainError(code, message string, status Status) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// StatusOf maps err to the envelope status and client message.
//
// Errors that are not DomainErrors, or that carry no client status,
// are internal: callers get StatusServFailure and a generic message.
func StatusOf(err error) (Status, string, bool) {
	var de *DomainError
	if errors.As(err, &de) && de.Status != 0 && de.Code != ErrInternal.Code && de.Code != ErrPersistence.Code {
		return de.Status, de.Message, true
	}
	return StatusServFailure, ErrInternal.Message, false
}

// Request errors.
var (
	// ErrMissingData indicates a required request field is absent.
	ErrMissingData = NewDomainError("BW-REQ-3000", "Missing data.", StatusMissingData)

	// ErrMalformedRequest indicates an unparseable path or body, or no matching endpoint.
	ErrMalformedRequest = NewDomainError("BW-REQ-4000", "Bad request.", StatusServFailure)

	// ErrBodyUnparseable indicates the POST body could not be decoded.
	ErrBodyUnparseable = NewDomainError("BW-REQ-4001", "Could not parse post data!", StatusServFailure)
)

// Authentication errors. Causes are never distinguished to the client.
var (
	// ErrAuthenticationFailed covers bad credentials and invalid, expired or missing keys.
	ErrAuthenticationFailed = NewDomainError("BW-AUTH-5000", "Authentication failed.", StatusAuthFailure)
)

// User errors.
var (
	// ErrUserExists indicates the user name is already registered.
	ErrUserExists = NewDomainError("BW-USER-4090", "User already exists.", StatusServFailure)

	// ErrUserNotFound indicates no user with the given name exists.
	ErrUserNotFound = NewDomainError("BW-USER-4040", "No such user.", StatusServFailure)

	// ErrInvalidUserName indicates the name cannot be stored.
	ErrInvalidUserName = NewDomainError("BW-USER-4001", "Invalid user name.", StatusServFailure)

	// ErrPasswordTooLong indicates the configured hash cannot take the password.
	ErrPasswordTooLong = NewDomainError("BW-USER-4002", "Password too long.", StatusServFailure)
)

// Storage and system errors.
var (
	// ErrStoreNotFound indicates the user store does not exist yet.
	ErrStoreNotFound = NewDomainError("BW-STORE-4040", "user store not found", StatusServFailure)

	// ErrStoreCorrupt indicates the user store could not be parsed.
	ErrStoreCorrupt = NewDomainError("BW-STORE-4000", "user store corrupt", StatusServFailure)

	// ErrPersistence indicates the user store could not be written.
	ErrPersistence = NewDomainError("BW-STORE-5001", "persistence failure", StatusServFailure)

	// ErrInternal indicates an unexpected fault.
	ErrInternal = NewDomainError("BW-SYS-5000", "Internal server error.", StatusServFailure)
)
