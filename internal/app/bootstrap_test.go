package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"spreadsheet-hooks/internal/common/config"
	"spreadsheet-hooks/internal/common/logger"
	"spreadsheet-hooks/internal/models"
)

func fakeStripe(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/tokens":
			_, _ = w.Write([]byte(`{"id":"tok_1","object":"token","type":"card"}`))
		case "/v1/charges":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "eur", r.PostForm.Get("currency"))
			_, _ = w.Write([]byte(`{"id":"ch_1","object":"charge","amount":500,"currency":"eur","description":"Order 42","paid":true,"status":"succeeded"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		Stripe: config.StripeConfig{SecretKey: "sk_test_1", Currency: "eur", APIURL: apiURL},
	}
}

func grid(v interface{}) [][]models.Cell {
	return [][]models.Cell{{{Value: v}}}
}

func TestNewRegistry_ChargesThroughProvider(t *testing.T) {
	srv := fakeStripe(t)
	registry, err := NewRegistry(Dependencies{
		Config:    testConfig(srv.URL),
		ZapLogger: zaptest.NewLogger(t),
		Logger:    logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"payment-charge"}, registry.Names())

	hook, ok := registry.Lookup("payment-charge")
	require.True(t, ok)

	req := &models.CalculationRequest{RequestID: "req-9", Inputs: []models.Input{
		{Ref: "iName", Value: grid("Jane")},
		{Ref: "iSurname", Value: grid("Doe")},
		{Ref: "iCardNumber", Value: grid("4242424242424242")},
		{Ref: "iYear", Value: grid("2030")},
		{Ref: "iMonth", Value: grid("12")},
		{Ref: "iCVC", Value: grid("123")},
		{Ref: "iAmount", Value: grid("500")},
		{Ref: "iDesc", Value: grid("Order 42")},
	}}
	resp := &models.CalculationResponse{Outputs: []models.Output{{Ref: "oResponse", Value: grid(nil)}}}

	verdict := hook.AfterCalculation(context.Background(), req, resp)
	require.True(t, verdict.Success, verdict.AllMessages())

	cell, ok := resp.FindOutput("oResponse").FirstCell()
	require.True(t, ok)
	var charge map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(cell.Value.(string)), &charge))
	assert.Equal(t, "ch_1", charge["id"])
}

func TestNewRegistry_DisabledHook(t *testing.T) {
	cfg := testConfig("")
	cfg.Hooks = map[string]config.HookConfig{"payment-charge": {Enabled: false}}

	registry, err := NewRegistry(Dependencies{Config: cfg, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)

	_, ok := registry.Lookup("payment-charge")
	assert.False(t, ok)
	assert.Empty(t, registry.Names())
}

func TestNewRegistry_InvalidCurrency(t *testing.T) {
	cfg := testConfig("")
	cfg.Stripe.Currency = "euro"

	_, err := NewRegistry(Dependencies{Config: cfg, Logger: logger.NewNoOpLogger()})
	assert.Error(t, err)
}
