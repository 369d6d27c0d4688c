// Package errors provides standardized error handling for the lead intake service.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Configuration errors
	ErrCodeCRMNotConfigured ErrorCode = "CRM_NOT_CONFIGURED"

	// Input errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Upstream CRM errors
	ErrCodeConflictUnresolved ErrorCode = "CONFLICT_UNRESOLVED"
	ErrCodeContactWriteFailed ErrorCode = "CONTACT_WRITE_FAILED"
	ErrCodeAttachmentFailed   ErrorCode = "ATTACHMENT_FAILED"

	// Catch-all
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// PublicServerError is the only message a caller sees for a hard failure.
// Diagnostic detail stays in server-side logs.
const PublicServerError = "Unable to process your request right now. Please try again later."

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewCRMNotConfiguredError creates a non-retryable configuration error.
func NewCRMNotConfiguredError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCRMNotConfigured,
		Message:   "CRM client not configured",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable input validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConflictUnresolvedError creates a non-retryable error for a uniqueness
// conflict whose message carried no parseable existing-record identifier.
func NewConflictUnresolvedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConflictUnresolved,
		Message:   "Contact already exists but the existing record could not be identified",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewContactWriteFailedError creates a retryable upstream write error.
func NewContactWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeContactWriteFailed,
		Message:   "Failed to write contact to CRM",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAttachmentFailedError creates a retryable attachment error. Attachment
// failures degrade silently and never fail the request.
func NewAttachmentFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAttachmentFailed,
		Message:   "Failed to attach file to CRM record",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error to the externally visible status code.
func HTTPStatus(err error) int {
	switch Normalize(err).Code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the stable, non-sensitive message for an error.
// Validation errors keep their field-level detail; everything else collapses
// to the generic server error.
func PublicMessage(err error) string {
	stdErr := Normalize(err)
	if stdErr.Code == ErrCodeValidationFailed {
		if stdErr.Details != "" {
			return fmt.Sprintf("%s: %s", stdErr.Message, stdErr.Details)
		}
		return stdErr.Message
	}
	return PublicServerError
}
