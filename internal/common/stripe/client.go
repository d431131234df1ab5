// Package stripe wraps the stripe-go client used by payment hooks.
package stripe

import (
	"context"
	"net/http"
	"strconv"

	stripeapi "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"go.uber.org/zap"

	apperrors "spreadsheet-hooks/internal/common/errors"
	"spreadsheet-hooks/internal/common/metrics"
)

// Operation names used in logs, metrics and error metadata.
const (
	OperationTokenCreate  = "token.create"
	OperationChargeCreate = "charge.create"
)

// Config configures a Client. APIURL overrides the API base URL and is only
// set for tests or proxies.
type Config struct {
	SecretKey  string
	APIURL     string
	HTTPClient *http.Client
}

// CardDetails is the card data sent for tokenization. It is never persisted.
type CardDetails struct {
	Name     string
	Number   string
	ExpMonth int
	ExpYear  int
	CVC      string
}

// ChargeDetails describes a single charge against a token.
type ChargeDetails struct {
	Amount         int64
	Currency       string
	Description    string
	Source         string
	IdempotencyKey string
	Metadata       map[string]string
}

// Client is an immutable per-process Stripe client. It never touches the
// package-level stripe.Key.
type Client struct {
	api    *client.API
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	apiConfig := &stripeapi.BackendConfig{
		HTTPClient:        httpClient,
		LeveledLogger:     logger.Sugar(),
		MaxNetworkRetries: stripeapi.Int64(0),
	}
	if cfg.APIURL != "" {
		apiConfig.URL = stripeapi.String(cfg.APIURL)
	}

	backends := &stripeapi.Backends{
		API: stripeapi.GetBackendWithConfig(stripeapi.APIBackend, apiConfig),
		Connect: stripeapi.GetBackendWithConfig(stripeapi.ConnectBackend, &stripeapi.BackendConfig{
			HTTPClient:        httpClient,
			LeveledLogger:     logger.Sugar(),
			MaxNetworkRetries: stripeapi.Int64(0),
		}),
		Uploads: stripeapi.GetBackendWithConfig(stripeapi.UploadsBackend, &stripeapi.BackendConfig{
			HTTPClient:        httpClient,
			LeveledLogger:     logger.Sugar(),
			MaxNetworkRetries: stripeapi.Int64(0),
		}),
	}

	return &Client{
		api:    client.New(cfg.SecretKey, backends),
		logger: logger,
	}
}

// CreateToken tokenizes the card. Errors are *errors.StandardError.
func (c *Client) CreateToken(ctx context.Context, card CardDetails) (*stripeapi.Token, error) {
	params := &stripeapi.TokenParams{
		Card: &stripeapi.CardParams{
			Name:     stripeapi.String(card.Name),
			Number:   stripeapi.String(card.Number),
			ExpMonth: stripeapi.String(strconv.Itoa(card.ExpMonth)),
			ExpYear:  stripeapi.String(strconv.Itoa(card.ExpYear)),
			CVC:      stripeapi.String(card.CVC),
		},
	}
	params.Context = ctx

	tok, err := c.api.Tokens.New(params)
	if err != nil {
		return nil, c.fail(OperationTokenCreate, err)
	}
	metrics.ProviderRequests.WithLabelValues(OperationTokenCreate, "success").Inc()
	return tok, nil
}

// CreateCharge charges the given token source. Errors are *errors.StandardError.
func (c *Client) CreateCharge(ctx context.Context, charge ChargeDetails) (*stripeapi.Charge, error) {
	params := &stripeapi.ChargeParams{
		Amount:   stripeapi.Int64(charge.Amount),
		Currency: stripeapi.String(charge.Currency),
	}
	if charge.Description != "" {
		params.Description = stripeapi.String(charge.Description)
	}
	if err := params.SetSource(charge.Source); err != nil {
		return nil, c.fail(OperationChargeCreate, err)
	}
	params.Context = ctx
	if charge.IdempotencyKey != "" {
		params.IdempotencyKey = stripeapi.String(charge.IdempotencyKey)
	}
	for k, v := range charge.Metadata {
		params.AddMetadata(k, v)
	}

	ch, err := c.api.Charges.New(params)
	if err != nil {
		return nil, c.fail(OperationChargeCreate, err)
	}
	metrics.ProviderRequests.WithLabelValues(OperationChargeCreate, "success").Inc()
	return ch, nil
}

func (c *Client) fail(operation string, err error) error {
	stdErr := ClassifyError(operation, err)
	metrics.ProviderRequests.WithLabelValues(operation, string(stdErr.Code)).Inc()
	c.logger.Warn("stripe request failed",
		zap.String("operation", operation),
		zap.String("error_code", string(stdErr.Code)),
		zap.Bool("retryable", stdErr.Retryable),
		zap.Error(err),
	)
	return stdErr
}

// ClassifyError maps a stripe-go error to a provider StandardError. The
// provider's message is kept verbatim for the spreadsheet user.
func ClassifyError(operation string, err error) *apperrors.StandardError {
	stripeErr, ok := err.(*stripeapi.Error)
	if !ok {
		return apperrors.NewProviderError(apperrors.ErrCodeProviderNetwork, operation, err.Error(), err)
	}

	message := stripeErr.Msg
	if message == "" {
		message = http.StatusText(stripeErr.HTTPStatusCode)
	}
	if message == "" {
		message = "Payment provider error"
	}

	var code apperrors.ErrorCode
	switch {
	case stripeErr.HTTPStatusCode == http.StatusUnauthorized, stripeErr.HTTPStatusCode == http.StatusForbidden:
		code = apperrors.ErrCodeProviderAuth
	case stripeErr.HTTPStatusCode == http.StatusTooManyRequests,
		stripeErr.HTTPStatusCode >= http.StatusInternalServerError,
		stripeErr.Type == stripeapi.ErrorTypeAPI:
		code = apperrors.ErrCodeProviderNetwork
	case stripeErr.Type == stripeapi.ErrorTypeCard:
		code = apperrors.ErrCodeProviderCard
	default:
		code = apperrors.ErrCodeProviderRequest
	}

	return apperrors.NewProviderError(code, operation, message, err)
}
