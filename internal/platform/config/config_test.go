package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "cerbos", cfg.PDP.Backend)
	assert.Equal(t, "cerbos:3593", cfg.PDP.Addr())
	assert.Equal(t, 2*time.Second, cfg.PDP.Timeout)
	assert.Equal(t, 1, cfg.PDP.MaxAttempts)
	assert.Equal(t, 0, cfg.PDP.BreakerThreshold)
	assert.Equal(t, "default", cfg.PDP.PolicyVersion)
	assert.True(t, cfg.PDP.Plaintext)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Empty(t, cfg.Database.URL)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, 20, cfg.RateLimit.AuthRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.AuthWindow)
	assert.False(t, cfg.RateLimit.Disabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PDP_BACKEND", "Cedar")
	t.Setenv("PDP_HOST", "pdp.internal")
	t.Setenv("PDP_PORT", "4000")
	t.Setenv("PDP_TIMEOUT", "750ms")
	t.Setenv("PDP_MAX_ATTEMPTS", "3")
	t.Setenv("PDP_BREAKER_THRESHOLD", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RATELIMIT_DISABLED", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "cedar", cfg.PDP.Backend)
	assert.Equal(t, "pdp.internal:4000", cfg.PDP.Addr())
	assert.Equal(t, 750*time.Millisecond, cfg.PDP.Timeout)
	assert.Equal(t, 3, cfg.PDP.MaxAttempts)
	assert.Equal(t, 5, cfg.PDP.BreakerThreshold)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.RateLimit.Disabled)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value, wantErr string
	}{
		{name: "malformed port", key: "PDP_PORT", value: "http", wantErr: "PDP_PORT"},
		{name: "malformed timeout", key: "PDP_TIMEOUT", value: "soon", wantErr: "PDP_TIMEOUT"},
		{name: "zero timeout", key: "PDP_TIMEOUT", value: "0s", wantErr: "PDP_TIMEOUT"},
		{name: "zero attempts", key: "PDP_MAX_ATTEMPTS", value: "0", wantErr: "PDP_MAX_ATTEMPTS"},
		{name: "unknown backend", key: "PDP_BACKEND", value: "opa", wantErr: "PDP_BACKEND"},
		{name: "malformed flag", key: "RATELIMIT_DISABLED", value: "maybe", wantErr: "RATELIMIT_DISABLED"},
		{name: "negative rate limit", key: "RATELIMIT_AUTH_REQUESTS", value: "-1", wantErr: "RATELIMIT_AUTH_REQUESTS"},
		{name: "openfga without store", key: "PDP_BACKEND", value: "openfga", wantErr: "OPENFGA_STORE_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
