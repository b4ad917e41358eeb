// Package ratelimit gates chat requests with a sliding window counted per
// user and per client IP.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultLimit  = 100
	DefaultWindow = 24 * time.Hour
	defaultKeys   = 100_000
)

// Decision is the outcome of one check. Reset is when the oldest counted
// request leaves the window.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter is the wait before a denied caller may try again, rounded up to
// whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.Reset.Sub(now)
	if wait <= 0 {
		return 0
	}
	if rem := wait % time.Second; rem != 0 {
		wait += time.Second - rem
	}
	return wait
}

// Limiter decides whether a request may start. Callers treat errors as allow.
type Limiter interface {
	Check(ctx context.Context, userID, ip string) (Decision, error)
}

// SlidingWindow keeps request timestamps per key. Every check is counted,
// including denied ones, and the busier of the user and IP keys decides.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits *expirable.LRU[string, []time.Time]
}

type Option func(*SlidingWindow)

func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) { s.now = now }
}

// WithMaxKeys bounds the number of tracked keys; least recently used keys are
// forgotten first.
func WithMaxKeys(n int) Option {
	return func(s *SlidingWindow) {
		s.hits = expirable.NewLRU[string, []time.Time](n, nil, s.window)
	}
}

func NewSlidingWindow(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	s := &SlidingWindow{limit: limit, window: window, now: time.Now}
	s.hits = expirable.NewLRU[string, []time.Time](defaultKeys, nil, window)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Limiter = (*SlidingWindow)(nil)

func (s *SlidingWindow) Check(_ context.Context, userID, ip string) (Decision, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	var oldest time.Time
	for _, key := range []string{"user:" + userID, "ip:" + ip} {
		if key == "user:" || key == "ip:" {
			continue
		}
		hits := s.record(key, now)
		if len(hits) > count {
			count = len(hits)
		}
		if oldest.IsZero() || hits[0].Before(oldest) {
			oldest = hits[0]
		}
	}
	if oldest.IsZero() {
		oldest = now
	}
	remaining := s.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= s.limit,
		Limit:     s.limit,
		Remaining: remaining,
		Reset:     oldest.Add(s.window),
	}, nil
}

// record drops timestamps outside the window, appends now and returns the
// remaining hits, oldest first. Only the newest limit+1 hits are kept: a key
// is denied exactly while its (limit+1)th newest hit is inside the window.
func (s *SlidingWindow) record(key string, now time.Time) []time.Time {
	prev, _ := s.hits.Get(key)
	cutoff := now.Add(-s.window)
	kept := make([]time.Time, 0, len(prev)+1)
	for _, t := range prev {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	if over := len(kept) - (s.limit + 1); over > 0 {
		kept = append([]time.Time(nil), kept[over:]...)
	}
	s.hits.Add(key, kept)
	return kept
}
