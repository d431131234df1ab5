package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_ExpandsSecretFromEnvironment(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env")

	cfg, err := LoadFromFile(writeConfig(t, `
stripe:
  secret_key: ${STRIPE_SECRET_KEY}
  currency: EUR
hooks:
  payment-charge:
    enabled: false
`))
	require.NoError(t, err)

	assert.Equal(t, "sk_test_env", cfg.Stripe.SecretKey)
	assert.Equal(t, "eur", cfg.Stripe.Currency)
	assert.False(t, IsHookEnabled(cfg, "payment-charge"))
	assert.Equal(t, 5, cfg.Hooks["payment-charge"].MaxJobsActive)
	assert.Equal(t, 120000, cfg.Hooks["payment-charge"].Timeout)
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env")

	cfg, err := LoadFromFile(writeConfig(t, `
app:
  name: hooks-under-test
`))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 15000, cfg.Server.ReadTimeout)
	assert.Equal(t, 600000, cfg.Redis.GuardTTL)
	assert.Equal(t, "gbp", cfg.Stripe.Currency)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "hooks-under-test", cfg.Observability.ServiceName)
	assert.True(t, IsHookEnabled(cfg, "payment-charge"))
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		body    string
		wantErr string
	}{
		{
			name:    "missing secret",
			body:    "stripe:\n  currency: gbp\n",
			wantErr: "stripe.secret_key is required",
		},
		{
			name:    "bad currency",
			secret:  "sk_test",
			body:    "stripe:\n  currency: pound\n",
			wantErr: "three-letter ISO code",
		},
		{
			name:    "camunda without broker",
			secret:  "sk_test",
			body:    "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "redis without address",
			secret:  "sk_test",
			body:    "redis:\n  enabled: true\n",
			wantErr: "redis.address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STRIPE_SECRET_KEY", tt.secret)
			t.Setenv("ZEEBE_ADDRESS", "")

			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetHookConfig(t *testing.T) {
	cfg := &Config{
		Camunda: CamundaConfig{Timeout: 90000},
		Hooks: map[string]HookConfig{
			"payment-charge": {Enabled: true, MaxJobsActive: 2, Timeout: 1000},
		},
	}

	assert.Equal(t, HookConfig{Enabled: true, MaxJobsActive: 2, Timeout: 1000}, GetHookConfig(cfg, "payment-charge"))
	assert.Equal(t, HookConfig{Enabled: true, MaxJobsActive: 5, Timeout: 90000}, GetHookConfig(cfg, "other"))
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
