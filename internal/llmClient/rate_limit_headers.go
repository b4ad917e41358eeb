package llmclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitHeaders is the normalized form of the x-ratelimit-* headers sent
// by OpenAI-compatible providers. Groq reports requests per day and tokens per
// minute under the same names; OpenAI reports both per minute.
type RateLimitHeaders struct {
	RetryAfter time.Duration

	LimitRequests     int
	LimitTokens       int
	RemainingRequests int
	RemainingTokens   int
	// HasRemaining is false when the provider sent no remaining-* header, so
	// zero values above are not mistaken for an exhausted budget.
	HasRemaining bool

	ResetRequests time.Duration
	ResetTokens   time.Duration
}

type RateLimitHeaderHandler func(headers RateLimitHeaders)

// RateLimitHeaderAwareClient is implemented by clients that expose the last
// rate-limit headers they received.
type RateLimitHeaderAwareClient interface {
	SetRateLimitHeaderHandler(handler RateLimitHeaderHandler)
	LastRateLimitHeaders() (RateLimitHeaders, bool)
}

// RateLimitControlAdapter turns observed headers into a wait before the next
// request.
type RateLimitControlAdapter interface {
	NextWait(headers RateLimitHeaders) time.Duration
}

const defaultMaxRateLimitWait = time.Minute

// HeaderRateLimitControlAdapter waits for Retry-After, or for the reset of an
// exhausted budget, capped at MaxWait (one minute when zero).
type HeaderRateLimitControlAdapter struct {
	MaxWait time.Duration
}

func (a HeaderRateLimitControlAdapter) NextWait(headers RateLimitHeaders) time.Duration {
	var wait time.Duration
	switch {
	case headers.RetryAfter > 0:
		wait = headers.RetryAfter
	case headers.HasRemaining && headers.RemainingTokens == 0 && headers.ResetTokens > 0:
		wait = headers.ResetTokens
	case headers.HasRemaining && headers.RemainingRequests == 0 && headers.ResetRequests > 0:
		wait = headers.ResetRequests
	}
	max := a.MaxWait
	if max <= 0 {
		max = defaultMaxRateLimitWait
	}
	if wait > max {
		wait = max
	}
	return wait
}

// parseRateLimitHeaders reads the rate-limit headers of a chat completions
// response. ok is false when none are present.
func parseRateLimitHeaders(h http.Header) (out RateLimitHeaders, ok bool) {
	readInt := func(key string, dst *int) bool {
		n, err := strconv.Atoi(strings.TrimSpace(h.Get(key)))
		if err != nil {
			return false
		}
		*dst = n
		ok = true
		return true
	}
	readDur := func(key string, dst *time.Duration) {
		if d, err := time.ParseDuration(strings.TrimSpace(h.Get(key))); err == nil {
			*dst = d
			ok = true
		}
	}

	if ms, err := strconv.ParseFloat(strings.TrimSpace(h.Get("retry-after-ms")), 64); err == nil {
		out.RetryAfter = time.Duration(ms * float64(time.Millisecond))
		ok = true
	} else if s, err := strconv.ParseFloat(strings.TrimSpace(h.Get("retry-after")), 64); err == nil {
		out.RetryAfter = time.Duration(s * float64(time.Second))
		ok = true
	}
	readInt("x-ratelimit-limit-requests", &out.LimitRequests)
	readInt("x-ratelimit-limit-tokens", &out.LimitTokens)
	remReq := readInt("x-ratelimit-remaining-requests", &out.RemainingRequests)
	remTok := readInt("x-ratelimit-remaining-tokens", &out.RemainingTokens)
	out.HasRemaining = remReq || remTok
	readDur("x-ratelimit-reset-requests", &out.ResetRequests)
	readDur("x-ratelimit-reset-tokens", &out.ResetTokens)
	return out, ok
}
