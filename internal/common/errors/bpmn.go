package errors

import (
	"time"

	"spreadsheet-hooks/internal/models"
)

// BPMNErrorCodeCancelled is thrown when a hook asks the host to cancel.
const BPMNErrorCodeCancelled = "HOOK_CANCELLED"

// BPMNError is an error thrown to the Zeebe workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return "BPMNError[" + e.Code + "]: " + e.Message
}

// ToErrorVariables returns the map set on the thrown error or failed job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ConvertToBPMNError maps a StandardError to a BPMN error. Hook failures never
// ask Zeebe for retries.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	return &BPMNError{
		Code:      BPMNErrorCodeCancelled,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   0,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"errorCategory":     GetErrorCategory(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// VerdictToBPMNError maps a cancelled hook verdict to a BPMN error.
func VerdictToBPMNError(verdict *models.ActionableResponse) *BPMNError {
	messages := verdict.AllMessages()
	message := "hook cancelled the calculation"
	if len(messages) > 0 {
		message = messages[0]
	}
	code := ErrorCode(verdict.ErrorCode)
	if code == "" {
		code = ErrCodeInternal
	}
	return &BPMNError{
		Code:    BPMNErrorCodeCancelled,
		Message: message,
		Retries: 0,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(code),
			"errorCategory":     GetErrorCategory(code),
			"hookMessages":      messages,
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
		},
	}
}
