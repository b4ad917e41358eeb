package llmclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRateLimitHeaders_Groq(t *testing.T) {
	h := http.Header{}
	h.Set("retry-after", "2")
	h.Set("x-ratelimit-limit-requests", "14400")
	h.Set("x-ratelimit-limit-tokens", "18000")
	h.Set("x-ratelimit-remaining-requests", "14370")
	h.Set("x-ratelimit-remaining-tokens", "17997")
	h.Set("x-ratelimit-reset-requests", "2m59.56s")
	h.Set("x-ratelimit-reset-tokens", "7.66s")

	got, ok := parseRateLimitHeaders(h)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, got.RetryAfter)
	assert.Equal(t, 14400, got.LimitRequests)
	assert.Equal(t, 18000, got.LimitTokens)
	assert.Equal(t, 14370, got.RemainingRequests)
	assert.Equal(t, 17997, got.RemainingTokens)
	assert.True(t, got.HasRemaining)
	assert.Equal(t, 2*time.Minute+59*time.Second+560*time.Millisecond, got.ResetRequests)
	assert.Equal(t, 7*time.Second+660*time.Millisecond, got.ResetTokens)
}

func TestParseRateLimitHeaders_OpenAIRetryAfterMs(t *testing.T) {
	h := http.Header{}
	h.Set("retry-after-ms", "1500")
	h.Set("retry-after", "2")
	h.Set("x-ratelimit-reset-tokens", "6m0s")

	got, ok := parseRateLimitHeaders(h)
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, got.RetryAfter)
	assert.False(t, got.HasRemaining)
	assert.Equal(t, 6*time.Minute, got.ResetTokens)

	_, ok = parseRateLimitHeaders(http.Header{"Content-Type": []string{"application/json"}})
	assert.False(t, ok)
}

func TestHeaderRateLimitControlAdapter_NextWait(t *testing.T) {
	adapter := HeaderRateLimitControlAdapter{}
	assert.Equal(t, 3*time.Second, adapter.NextWait(RateLimitHeaders{RetryAfter: 3 * time.Second}))
	assert.Equal(t, 5*time.Second, adapter.NextWait(RateLimitHeaders{HasRemaining: true, RemainingRequests: 3, ResetTokens: 5 * time.Second}))
	assert.Equal(t, 11*time.Second, adapter.NextWait(RateLimitHeaders{HasRemaining: true, RemainingTokens: 10, ResetRequests: 11 * time.Second}))
	assert.Equal(t, time.Duration(0), adapter.NextWait(RateLimitHeaders{ResetTokens: 5 * time.Second}), "missing remaining headers are not exhaustion")
	assert.Equal(t, time.Minute, adapter.NextWait(RateLimitHeaders{RetryAfter: time.Hour}))
	assert.Equal(t, 2*time.Second, HeaderRateLimitControlAdapter{MaxWait: 2 * time.Second}.NextWait(RateLimitHeaders{RetryAfter: time.Hour}))
}
