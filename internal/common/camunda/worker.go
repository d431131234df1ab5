// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"spreadsheet-hooks/internal/common/errors"
	"spreadsheet-hooks/internal/common/logger"
	"spreadsheet-hooks/internal/common/validation"
	"spreadsheet-hooks/internal/hooks"
	"spreadsheet-hooks/internal/models"
)

// JobTypePrefix prefixes the hook name to form the Zeebe job type.
const JobTypePrefix = "spreadsheet.after-calculation."

// Job variable names.
const (
	VarCalculationRequest  = "calculationRequest"
	VarCalculationResponse = "calculationResponse"
	VarHookResult          = "hookResult"
)

func JobType(hookName string) string {
	return JobTypePrefix + hookName
}

// WorkerOptions configures one hook job worker.
type WorkerOptions struct {
	HookName      string
	MaxJobsActive int
	Timeout       time.Duration
	WorkerName    string
}

// HookWorker runs an after-calculation hook for each activated job.
type HookWorker struct {
	hookName     string
	hook         hooks.AfterCalculationHook
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	worker       worker.JobWorker
}

func NewHookWorker(hookName string, hook hooks.AfterCalculationHook, log logger.Logger) *HookWorker {
	return &HookWorker{
		hookName:     hookName,
		hook:         hook,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

// Open starts polling for the hook's job type.
func (w *HookWorker) Open(client zbc.Client, opts WorkerOptions) {
	builder := client.NewJobWorker().
		JobType(JobType(w.hookName)).
		Handler(w.Handle).
		MaxJobsActive(opts.MaxJobsActive)
	if opts.Timeout > 0 {
		builder = builder.Timeout(opts.Timeout)
	}
	if opts.WorkerName != "" {
		builder = builder.Name(opts.WorkerName)
	}
	w.worker = builder.Open()

	w.logger.Info("Hook worker started", map[string]interface{}{
		"hook":    w.hookName,
		"jobType": JobType(w.hookName),
	})
}

func (w *HookWorker) Close() {
	if w.worker != nil {
		w.logger.Info("Stopping hook worker", map[string]interface{}{"hook": w.hookName})
		w.worker.Close()
		w.worker.AwaitClose()
	}
}

// jobOutcome is what a job resolves to: completion variables, a cancelled
// verdict, or a job failure.
type jobOutcome struct {
	complete map[string]interface{}
	verdict  *models.ActionableResponse
	err      error
}

// Handle is the Zeebe job handler. The job deadline bounds the hook's context.
func (w *HookWorker) Handle(client worker.JobClient, job entities.Job) {
	ctx := context.Background()
	if deadline := job.GetDeadline(); deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, time.UnixMilli(deadline))
		defer cancel()
	}

	w.logger.Info("Processing hook job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"hook":               w.hookName,
	})

	outcome := w.process(ctx, job)

	var err error
	switch {
	case outcome.err != nil:
		err = w.errorHandler.HandleJobError(ctx, client, job, outcome.err)
	case outcome.verdict != nil:
		err = w.errorHandler.HandleCancelledVerdict(ctx, client, job, outcome.verdict)
	default:
		err = w.completeJob(ctx, client, job, outcome.complete)
	}
	if err != nil {
		w.logger.Error("Failed to report job result", map[string]interface{}{
			"jobKey": job.GetKey(),
			"hook":   w.hookName,
			"error":  err.Error(),
		})
	}
}

func (w *HookWorker) process(ctx context.Context, job entities.Job) jobOutcome {
	req, resp, err := parseJobVariables(job)
	if err != nil {
		return jobOutcome{err: err}
	}

	verdict := w.hook.AfterCalculation(ctx, req, resp)
	if verdict == nil {
		return jobOutcome{err: fmt.Errorf("hook %s returned no verdict", w.hookName)}
	}
	if verdict.Cancelled() || !verdict.Success {
		return jobOutcome{verdict: verdict}
	}

	return jobOutcome{complete: map[string]interface{}{
		VarCalculationResponse: resp,
		VarHookResult:          verdict,
	}}
}

type jobVariables struct {
	CalculationRequest  models.CalculationRequest  `json:"calculationRequest"`
	CalculationResponse models.CalculationResponse `json:"calculationResponse"`
}

func parseJobVariables(job entities.Job) (*models.CalculationRequest, *models.CalculationResponse, error) {
	raw, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, nil, errors.NewInvalidEnvelopeError(fmt.Sprintf("failed to parse job variables: %v", err))
	}

	result, err := validation.ValidateJobVariables(raw)
	if err != nil {
		return nil, nil, errors.NewInvalidEnvelopeError(err.Error())
	}
	if !result.Valid {
		return nil, nil, errors.NewInvalidEnvelopeError(fmt.Sprintf("validation errors: %v", result.GetErrorMessages()))
	}

	var vars jobVariables
	if err := job.GetVariablesAs(&vars); err != nil {
		return nil, nil, errors.NewInvalidEnvelopeError(fmt.Sprintf("failed to decode job variables: %v", err))
	}
	// A re-delivered job keeps its key, so the charge stays idempotent.
	if vars.CalculationRequest.RequestID == "" {
		vars.CalculationRequest.RequestID = strconv.FormatInt(job.GetKey(), 10)
	}
	return &vars.CalculationRequest, &vars.CalculationResponse, nil
}

func (w *HookWorker) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, variables map[string]interface{}) error {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		return fmt.Errorf("failed to create complete job command: %w", err)
	}
	if _, err := request.Send(ctx); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	w.logger.Info("Hook job completed", map[string]interface{}{
		"jobKey": job.GetKey(),
		"hook":   w.hookName,
	})
	return nil
}
