// Package app wires configuration into the hook registry shared by the
// server and the command-line runner.
package app

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"spreadsheet-hooks/internal/common/config"
	apphttp "spreadsheet-hooks/internal/common/http"
	"spreadsheet-hooks/internal/common/idempotency"
	"spreadsheet-hooks/internal/common/logger"
	"spreadsheet-hooks/internal/common/observability"
	"spreadsheet-hooks/internal/common/stripe"
	"spreadsheet-hooks/internal/hooks"
	paymentcharge "spreadsheet-hooks/internal/hooks/payment/payment-charge"
)

// Dependencies are the shared clients handed to every hook.
type Dependencies struct {
	Config        *config.Config
	ZapLogger     *zap.Logger
	Logger        logger.Logger
	Observability *observability.Observability
	Guard         idempotency.Guard
	HTTPClient    *http.Client
}

// NewRegistry builds every hook and applies the enabled flags from config.
func NewRegistry(deps Dependencies) (*hooks.Registry, error) {
	if deps.HTTPClient == nil {
		deps.HTTPClient = apphttp.NewClient(80 * time.Second)
	}

	provider := stripe.NewClient(stripe.Config{
		SecretKey:  deps.Config.Stripe.SecretKey,
		APIURL:     deps.Config.Stripe.APIURL,
		HTTPClient: deps.HTTPClient,
	}, deps.ZapLogger)

	registry := hooks.NewRegistry()

	handler, err := paymentcharge.NewHandler(paymentcharge.HandlerOptions{
		AppConfig:     deps.Config,
		Logger:        deps.Logger,
		Provider:      provider,
		Guard:         deps.Guard,
		Observability: deps.Observability,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s hook: %w", paymentcharge.HookName, err)
	}
	registry.Register(paymentcharge.HookName, handler)
	registry.SetEnabled(paymentcharge.HookName, handler.Enabled())

	return registry, nil
}
