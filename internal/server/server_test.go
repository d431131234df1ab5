package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadsheet-hooks/internal/common/errors"
	"spreadsheet-hooks/internal/common/logger"
	"spreadsheet-hooks/internal/hooks"
	"spreadsheet-hooks/internal/models"
)

const validEnvelope = `{
	"request": {"requestId": "req-7", "inputs": [{"ref": "iAmount", "value": [[{"value": "500"}]]}]},
	"response": {"outputs": [{"ref": "oResponse", "value": [[{"value": null}]]}]}
}`

func newTestServer(t *testing.T, registry *hooks.Registry, checks map[string]ReadinessCheck) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(Options{
		Registry:        registry,
		Logger:          logger.NewTestLogger(t),
		ReadinessChecks: checks,
	})
}

func do(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func writingHook() hooks.HookFunc {
	return func(ctx context.Context, req *models.CalculationRequest, resp *models.CalculationResponse) *models.ActionableResponse {
		out := resp.FindOutput("oResponse")
		if out == nil {
			return errors.ToActionableResponse(errors.NewFieldNotFoundError([]string{"oResponse"}))
		}
		out.SetFirstCell("charged:" + req.RequestID)
		return models.NewSuccessResponse("Payment is successful")
	}
}

func TestAfterCalculation_Success(t *testing.T) {
	registry := hooks.NewRegistry()
	registry.Register("payment-charge", writingHook())
	s := newTestServer(t, registry, nil)

	w := do(s, http.MethodPost, "/hooks/payment-charge/after-calculation", validEnvelope, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Result.Success)
	assert.Equal(t, models.ResponseActionNone, got.Result.ResponseAction)
	assert.Equal(t, "charged:req-7", got.Response.Outputs[0].Value[0][0].Value)
}

func TestAfterCalculation_CancelIsStill200(t *testing.T) {
	registry := hooks.NewRegistry()
	registry.Register("payment-charge", writingHook())
	s := newTestServer(t, registry, nil)

	body := `{"request": {"inputs": []}, "response": {"outputs": []}}`
	w := do(s, http.MethodPost, "/hooks/payment-charge/after-calculation", body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.Result.Success)
	assert.Equal(t, models.ResponseActionCancel, got.Result.ResponseAction)
	assert.Equal(t, []string{"Required fields not found: oResponse"}, got.Result.Messages)
	assert.Equal(t, "FIELD_NOT_FOUND", got.Result.ErrorCode)
}

func TestAfterCalculation_RequestIDFromHeader(t *testing.T) {
	registry := hooks.NewRegistry()
	registry.Register("payment-charge", writingHook())
	s := newTestServer(t, registry, nil)

	body := `{"request": {"inputs": []}, "response": {"outputs": [{"ref": "oResponse", "value": []}]}}`
	w := do(s, http.MethodPost, "/hooks/payment-charge/after-calculation", body, map[string]string{HeaderRequestID: "hdr-1"})

	require.Equal(t, http.StatusOK, w.Code)
	var got Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "charged:hdr-1", got.Response.Outputs[0].Value[0][0].Value)
}

func TestAfterCalculation_UnknownAndDisabledHooks(t *testing.T) {
	registry := hooks.NewRegistry()
	registry.Register("payment-charge", writingHook())
	registry.SetEnabled("payment-charge", false)
	s := newTestServer(t, registry, nil)

	for _, name := range []string{"payment-charge", "nope"} {
		w := do(s, http.MethodPost, "/hooks/"+name+"/after-calculation", validEnvelope, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, name)
		assert.Contains(t, w.Body.String(), "HOOK_NOT_FOUND")
	}
}

func TestAfterCalculation_MalformedEnvelope(t *testing.T) {
	registry := hooks.NewRegistry()
	called := false
	registry.Register("payment-charge", hooks.HookFunc(func(ctx context.Context, req *models.CalculationRequest, resp *models.CalculationResponse) *models.ActionableResponse {
		called = true
		return models.NewSuccessResponse("ok")
	}))
	s := newTestServer(t, registry, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing response", `{"request": {"inputs": []}}`},
		{"grid is not an array", `{"request": {"inputs": [{"ref": "iName", "value": "Jane"}]}, "response": {"outputs": []}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/hooks/payment-charge/after-calculation", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_ENVELOPE")
		})
	}
	assert.False(t, called)
}

func TestListHooks(t *testing.T) {
	registry := hooks.NewRegistry()
	registry.Register("payment-charge", writingHook())
	s := newTestServer(t, registry, nil)

	w := do(s, http.MethodGet, "/hooks", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"hooks": ["payment-charge"]}`, w.Body.String())
}

func TestHealthAndReady(t *testing.T) {
	healthy := newTestServer(t, hooks.NewRegistry(), map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return nil },
	})
	w := do(healthy, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(healthy, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ready", "checks": {"redis": "ok"}}`, w.Body.String())

	unhealthy := newTestServer(t, hooks.NewRegistry(), map[string]ReadinessCheck{
		"zeebe": func(ctx context.Context) error { return stderrors.New("unavailable") },
	})
	w = do(unhealthy, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status": "not_ready", "checks": {"zeebe": "unavailable"}}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, hooks.NewRegistry(), nil)
	do(s, http.MethodGet, "/hooks", "", nil)

	w := do(s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/hooks",status="200"}`)
}
