// Package errors provides the tagged error type shared by hooks and host adapters,
// and its conversions to the host verdict and to BPMN errors.
package errors

import (
	"fmt"
	"strings"
	"time"

	"spreadsheet-hooks/internal/models"
)

// ErrorCode is the tag of a StandardError.
type ErrorCode string

// Validation errors: raised before any provider call.
const (
	ErrCodeFieldNotFound       ErrorCode = "FIELD_NOT_FOUND"
	ErrCodeInvalidFieldValue   ErrorCode = "INVALID_FIELD_VALUE"
	ErrCodeDuplicateSubmission ErrorCode = "DUPLICATE_SUBMISSION"
	ErrCodeInvalidEnvelope     ErrorCode = "INVALID_ENVELOPE"
)

// Provider errors.
const (
	ErrCodeProviderCard    ErrorCode = "PROVIDER_CARD_ERROR"
	ErrCodeProviderRequest ErrorCode = "PROVIDER_REQUEST_ERROR"
	ErrCodeProviderAuth    ErrorCode = "PROVIDER_AUTH_ERROR"
	ErrCodeProviderNetwork ErrorCode = "PROVIDER_NETWORK_ERROR"
)

// Internal errors.
const (
	ErrCodeSerializationFailed ErrorCode = "SERIALIZATION_FAILED"
	ErrCodeHookNotFound        ErrorCode = "HOOK_NOT_FOUND"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured, tagged application error. Message is the text
// shown to the spreadsheet user; Details is for logs only.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// ==========================
// Constructors
// ==========================

// NewFieldNotFoundError reports every required ref that could not be resolved.
func NewFieldNotFoundError(refs []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFieldNotFound,
		Message:   fmt.Sprintf("Required fields not found: %s", strings.Join(refs, ", ")),
		Details:   fmt.Sprintf("missing refs: %v", refs),
		Retryable: false,
		Metadata:  map[string]interface{}{"refs": refs},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFieldValueError reports refs whose values could not be converted.
func NewInvalidFieldValueError(refs []string, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFieldValue,
		Message:   fmt.Sprintf("Invalid values for fields: %s", strings.Join(refs, ", ")),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"refs": refs},
		Timestamp: time.Now().UTC(),
	}
}

func NewDuplicateSubmissionError(requestID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateSubmission,
		Message:   "This payment has already been submitted",
		Details:   fmt.Sprintf("requestId: %s", requestID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidEnvelopeError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidEnvelope,
		Message:   "Malformed calculation envelope",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderError wraps a payment provider failure. message is the provider's
// own text and is surfaced to the user verbatim.
func NewProviderError(code ErrorCode, operation, message string, cause error) *StandardError {
	details := operation
	if cause != nil {
		details = fmt.Sprintf("operation: %s, error: %v", operation, cause)
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

func NewSerializationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSerializationFailed,
		Message:   "Failed to serialize provider response",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewHookNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHookNotFound,
		Message:   fmt.Sprintf("Hook %q is not registered", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// Conversion
// ==========================

// Normalize turns any error into a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// ToActionableResponse collapses every error variant into the single failure
// shape the host understands: the user message plus a cancel directive.
func ToActionableResponse(err error) *models.ActionableResponse {
	stdErr := Normalize(err)
	verdict := models.NewCancelResponse(stdErr.Message)
	verdict.ErrorCode = string(stdErr.Code)
	return verdict
}

// IsRetryableErrorCode reports whether a later attempt could succeed.
// Nothing in this module retries; the flag feeds logs and metrics.
func IsRetryableErrorCode(code ErrorCode) bool {
	return code == ErrCodeProviderNetwork
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeProviderNetwork:
		return "NETWORK"
	case strings.HasPrefix(codeStr, "PROVIDER_"):
		return "PROVIDER"
	case code == ErrCodeFieldNotFound,
		code == ErrCodeInvalidFieldValue,
		code == ErrCodeDuplicateSubmission,
		code == ErrCodeInvalidEnvelope:
		return "VALIDATION"
	default:
		return "INTERNAL"
	}
}
