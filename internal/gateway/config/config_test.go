package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "DATABASE_URL", "PRISM_DEFAULT_MODEL", "PRISM_ENABLE_FAKE_MODEL",
		"PRISM_TEMPERATURE", "RATE_LIMIT_MAX_REQUESTS", "RATE_LIMIT_WINDOW", "TRACE_S3_ENDPOINT", "TRACE_MINIO_ENDPOINT"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv(":8081")
	assert.Equal(t, ":8081", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "gpt-4o-mini", cfg.DefaultModel)
	assert.True(t, cfg.EnableFakeModel)
	assert.InDelta(t, 0.2, cfg.Pipeline.Temperature, 1e-6)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.Delay)
	assert.Equal(t, 15*time.Second, cfg.Pipeline.HeavyDelay)
	assert.Equal(t, 100, cfg.RateLimit.Limit)
	assert.Equal(t, 24*time.Hour, cfg.RateLimit.Window)
	assert.False(t, cfg.Trace.Enabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PRISM_ENABLE_FAKE_MODEL", "")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "1h")
	t.Setenv("PRISM_SEQUENTIAL_DELAY", "not-a-duration")
	t.Setenv("TRACE_S3_ENDPOINT", "s3.example.com")
	t.Setenv("TRACE_S3_USE_SSL", "")

	cfg := FromEnv(":8081")
	assert.Equal(t, ":9000", cfg.Port)
	assert.False(t, cfg.EnableFakeModel)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.Delay)
	assert.True(t, cfg.Trace.Enabled)
	assert.True(t, cfg.Trace.UseSSL)
}

func TestTraceConfig_CanUseS3(t *testing.T) {
	assert.False(t, TraceConfig{}.CanUseS3())
	assert.False(t, TraceConfig{Enabled: true, Endpoint: "minio:9000", Bucket: "b"}.CanUseS3())
	assert.True(t, TraceConfig{Enabled: true, Endpoint: "minio:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"}.CanUseS3())
}
