package paymentcharge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spreadsheet-hooks/internal/common/config"
	"spreadsheet-hooks/internal/common/errors"
	"spreadsheet-hooks/internal/common/idempotency"
	"spreadsheet-hooks/internal/common/logger"
	"spreadsheet-hooks/internal/common/metrics"
	"spreadsheet-hooks/internal/common/observability"
	"spreadsheet-hooks/internal/models"
)

const HookName = "payment-charge"

// Handler charges a card from spreadsheet inputs after each calculation and
// writes the provider's charge into oResponse.
type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
	obs     *observability.Observability
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Logger        logger.Logger
	Provider      Provider
	Guard         idempotency.Guard
	Observability *observability.Observability
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	hookConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := hookConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", HookName, err)
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("payment provider is required for %s", HookName)
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}

	handler := &Handler{
		config: hookConfig,
		logger: loggerInstance,
		obs:    opts.Observability,
	}

	handler.service = NewService(ServiceDependencies{
		Logger:        loggerInstance,
		Provider:      opts.Provider,
		Guard:         opts.Guard,
		Observability: opts.Observability,
	}, hookConfig)

	return handler, nil
}

// AfterCalculation validates the inputs, tokenizes the card, charges it and
// stores the serialized charge in oResponse. Every failure becomes a cancel
// verdict; oResponse is only written after a successful charge.
func (h *Handler) AfterCalculation(ctx context.Context, req *models.CalculationRequest, resp *models.CalculationResponse) (verdict *models.ActionableResponse) {
	startTime := time.Now()
	metrics.HookInvocationsActive.WithLabelValues(HookName).Inc()
	defer metrics.HookInvocationsActive.WithLabelValues(HookName).Dec()

	requestID, guarded := resolveRequestID(req)

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Hook panicked", map[string]interface{}{
				"requestId": requestID,
				"panic":     fmt.Sprint(r),
			})
			verdict = errors.ToActionableResponse(fmt.Errorf("panic: %v", r))
		}
		h.record(ctx, verdict, time.Since(startTime))
	}()

	h.logger.Info("Processing payment charge", map[string]interface{}{
		"requestId": requestID,
		"hook":      HookName,
	})

	input, out, err := extractInput(req, resp)
	if err != nil {
		return h.fail(requestID, err)
	}

	charge, err := h.service.Charge(ctx, requestID, guarded, input)
	if err != nil {
		return h.fail(requestID, err)
	}

	serialized, err := json.Marshal(charge)
	if err != nil {
		return h.fail(requestID, errors.NewSerializationFailedError(err))
	}
	out.SetFirstCell(string(serialized))

	return models.NewSuccessResponse(SuccessMessage)
}

func (h *Handler) fail(requestID string, err error) *models.ActionableResponse {
	stdErr := errors.Normalize(err)
	h.logger.Warn("Payment charge cancelled", map[string]interface{}{
		"requestId":     requestID,
		"errorCode":     string(stdErr.Code),
		"errorCategory": errors.GetErrorCategory(stdErr.Code),
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
	})
	return errors.ToActionableResponse(stdErr)
}

func (h *Handler) record(ctx context.Context, verdict *models.ActionableResponse, elapsed time.Duration) {
	outcome := metrics.OutcomeSuccess
	if verdict == nil || !verdict.Success {
		outcome = metrics.OutcomeCancel
		code := string(errors.ErrCodeInternal)
		if verdict != nil && verdict.ErrorCode != "" {
			code = verdict.ErrorCode
		}
		metrics.HookFailures.WithLabelValues(HookName, code).Inc()
	}
	metrics.HookInvocations.WithLabelValues(HookName, outcome).Inc()
	metrics.HookDuration.WithLabelValues(HookName).Observe(elapsed.Seconds())
	h.obs.RecordHookInvocation(ctx, HookName, outcome)
	h.obs.RecordHookDuration(ctx, HookName, elapsed)
}

// resolveRequestID returns the host-supplied id, or a fresh one. Only
// host-supplied ids can be re-delivered, so only they are guarded.
func resolveRequestID(req *models.CalculationRequest) (string, bool) {
	if req != nil && req.RequestID != "" {
		return req.RequestID, true
	}
	return uuid.NewString(), false
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}

	cfg.Enabled = config.IsHookEnabled(appConfig, HookName)
	if appConfig.Stripe.Currency != "" {
		cfg.Currency = appConfig.Stripe.Currency
	}
	return cfg
}

// Enabled reports whether configuration allows hosts to expose the hook.
func (h *Handler) Enabled() bool {
	return h.config.Enabled
}
