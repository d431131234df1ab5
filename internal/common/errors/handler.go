package errors

import (
	"context"
	"encoding/json"

	"spreadsheet-hooks/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler reports hook failures back to Zeebe.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError fails the job without retries. Used when the job itself is
// unusable, e.g. its variables do not form a calculation envelope.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	h.logError(job, string(stdErr.Code), bpmnErr)

	cmd := client.NewFailJobCommand().
		JobKey(job.GetKey()).
		Retries(0).
		ErrorMessage("[" + string(stdErr.Code) + "] " + bpmnErr.Message)

	if varsJSON, marshalErr := json.Marshal(bpmnErr.ToErrorVariables()); marshalErr == nil {
		if withVars, varErr := cmd.VariablesFromString(string(varsJSON)); varErr == nil {
			_, sendErr := withVars.Send(ctx)
			return sendErr
		}
	}
	_, sendErr := cmd.Send(ctx)
	return sendErr
}

// HandleCancelledVerdict throws the HOOK_CANCELLED BPMN error so the process
// can route to its cancellation path.
func (h *ErrorHandler) HandleCancelledVerdict(ctx context.Context, client worker.JobClient, job entities.Job, verdict *models.ActionableResponse) error {
	bpmnErr := VerdictToBPMNError(verdict)
	h.logError(job, verdict.ErrorCode, bpmnErr)

	cmd := client.NewThrowErrorCommand().
		JobKey(job.GetKey()).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, marshalErr := json.Marshal(bpmnErr.ToErrorVariables()); marshalErr == nil {
		if withVars, varErr := cmd.VariablesFromString(string(varsJSON)); varErr == nil {
			_, sendErr := withVars.Send(ctx)
			return sendErr
		}
	}
	_, sendErr := cmd.Send(ctx)
	return sendErr
}

func (h *ErrorHandler) logError(job entities.Job, code string, bpmnErr *BPMNError) {
	h.logger.Error("Hook job failed", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"jobType":            job.GetType(),
		"errorCode":          code,
		"bpmnErrorCode":      bpmnErr.Code,
		"message":            bpmnErr.Message,
		"details":            bpmnErr.Details,
		"retryable":          bpmnErr.Retryable,
		"errorCategory":      GetErrorCategory(ErrorCode(code)),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})
}
