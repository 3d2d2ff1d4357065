package errors

import (
	stderrors "errors"
	"fmt"
)

type ErrorType string

const (
	ValidationError         ErrorType = "VALIDATION_ERROR"
	InvalidOrgError         ErrorType = "INVALID_ORG"
	IdentityNotFoundError   ErrorType = "IDENTITY_NOT_FOUND"
	ConnectionError         ErrorType = "CONNECTION_ERROR"
	RegistrationError       ErrorType = "REGISTRATION_ERROR"
	EnrollmentError         ErrorType = "ENROLLMENT_ERROR"
	ContractInvocationError ErrorType = "CONTRACT_INVOCATION_ERROR"
	InternalError           ErrorType = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"` // Internal error, not exposed in JSON
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Cause returns the message a client should see: the underlying error's
// text when there is one, the AppError message otherwise.
func (e *AppError) Cause() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Helper functions to create specific error types
func NewValidationError(msg string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:    ValidationError,
		Message: msg,
		Details: details,
	}
}

func NewInvalidOrgError(org string) *AppError {
	return &AppError{
		Type:    InvalidOrgError,
		Message: fmt.Sprintf("organization %q is not configured", org),
		Details: map[string]interface{}{"org": org},
	}
}

func NewIdentityNotFoundError(org, label string) *AppError {
	return &AppError{
		Type:    IdentityNotFoundError,
		Message: fmt.Sprintf("an identity for the user %s does not exist in the %s identity store", label, org),
		Details: map[string]interface{}{"org": org, "label": label},
	}
}

func NewConnectionError(msg string, err error, details map[string]interface{}) *AppError {
	return &AppError{
		Type:    ConnectionError,
		Message: msg,
		Details: details,
		Err:     err,
	}
}

func NewRegistrationError(msg string, err error, details map[string]interface{}) *AppError {
	return &AppError{
		Type:    RegistrationError,
		Message: msg,
		Details: details,
		Err:     err,
	}
}

func NewEnrollmentError(msg string, err error, details map[string]interface{}) *AppError {
	return &AppError{
		Type:    EnrollmentError,
		Message: msg,
		Details: details,
		Err:     err,
	}
}

func NewContractInvocationError(operation string, err error) *AppError {
	return &AppError{
		Type:    ContractInvocationError,
		Message: fmt.Sprintf("%s failed", operation),
		Details: map[string]interface{}{"operation": operation},
		Err:     err,
	}
}

func NewInternalError(msg string, err error, details map[string]interface{}) *AppError {
	return &AppError{
		Type:    InternalError,
		Message: msg,
		Details: details,
		Err:     err,
	}
}

// IsType reports whether err, or any error it wraps, is an AppError of the
// given type.
func IsType(err error, target ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == target
	}
	return false
}

// TypeOf returns the AppError type found in err's chain, or InternalError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return InternalError
}
