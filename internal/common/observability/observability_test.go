package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseOTLPEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"tempo:4318", "tempo:4318"},
		{"http://tempo:4318", "tempo:4318"},
		{"https://collector.example.com", "collector.example.com:4318"},
		{"  localhost:4318 ", "localhost:4318"},
	}
	for _, tt := range tests {
		got, err := parseOTLPEndpoint(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestObservability_WithoutTracing(t *testing.T) {
	obs := New("hooks-test", "", zaptest.NewLogger(t))
	defer obs.Shutdown()

	assert.Nil(t, obs.tracerShutdown)

	ctx, span := obs.StartSpan(context.Background(), "stripe.token.create")
	require.NotNil(t, span)
	span.End()

	obs.RecordHookInvocation(ctx, "payment-charge", "success")
	obs.RecordHookDuration(ctx, "payment-charge", 15*time.Millisecond)
}

func TestObservability_NilIsSafe(t *testing.T) {
	var obs *Observability

	ctx, span := obs.StartSpan(context.Background(), "noop")
	span.End()
	obs.RecordHookInvocation(ctx, "payment-charge", "cancel")
	obs.RecordHookDuration(ctx, "payment-charge", time.Second)
	obs.Shutdown()
}
