package llm

import (
	"context"
	"log"
	"strconv"
	"time"

	llmclient "prism/internal/llmClient"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, logging, hooks, etc.).
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}

// passthrough implements the parts of LLMClient that every middleware forwards
// unchanged.
type passthrough struct {
	next llmclient.LLMClient
}

func (p passthrough) Name() string { return p.next.Name() }
func (p passthrough) Close() error { return p.next.Close() }

// -------- Rate Limiting --------

// RateLimit limits request rate using the rpsLimiter.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		rl := newRPSLimiter(rps, burst)
		return &rateLimited{passthrough: passthrough{next}, limiters: []*rpsLimiter{rl}}
	}
}

// MultiLimit applies minute and day request limits. Pass 0 to disable either.
func MultiLimit(rpm, rpd int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		var ls []*rpsLimiter
		if rpm > 0 {
			ls = append(ls, newRPSLimiter(float64(rpm)/60.0, max1(rpm)))
		}
		if rpd > 0 {
			ls = append(ls, newRPSLimiter(float64(rpd)/86400.0, max1(rpd)))
		}
		return &rateLimited{passthrough: passthrough{next}, limiters: ls}
	}
}

type rateLimited struct {
	passthrough
	limiters []*rpsLimiter
}

func (c *rateLimited) Close() error {
	for _, l := range c.limiters {
		l.Stop()
	}
	return c.next.Close()
}

func (c *rateLimited) acquire(ctx context.Context) error {
	for _, l := range c.limiters {
		if err := l.Acquire(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *rateLimited) GenerateText(ctx context.Context, req llmclient.Request) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}
	return c.next.GenerateText(ctx, req)
}

func (c *rateLimited) StreamText(ctx context.Context, req llmclient.Request, onDelta llmclient.DeltaFunc) (llmclient.Completion, error) {
	if err := c.acquire(ctx); err != nil {
		return llmclient.Completion{}, err
	}
	return c.next.StreamText(ctx, req, onDelta)
}

// -------- Provider rate-limit signals --------

// RespectRateLimitSignals delays requests based on the last provider
// rate-limit headers observed by next. Clients that do not expose headers
// are returned unchanged.
func RespectRateLimitSignals(adapter llmclient.RateLimitControlAdapter) Middleware {
	if adapter == nil {
		adapter = llmclient.HeaderRateLimitControlAdapter{}
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		aware, ok := next.(llmclient.RateLimitHeaderAwareClient)
		if !ok {
			return next
		}
		return &signalControlled{passthrough: passthrough{next}, aware: aware, adapter: adapter}
	}
}

type signalControlled struct {
	passthrough
	aware   llmclient.RateLimitHeaderAwareClient
	adapter llmclient.RateLimitControlAdapter
}

func (m *signalControlled) GenerateText(ctx context.Context, req llmclient.Request) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	return m.next.GenerateText(ctx, req)
}

func (m *signalControlled) StreamText(ctx context.Context, req llmclient.Request, onDelta llmclient.DeltaFunc) (llmclient.Completion, error) {
	if err := m.wait(ctx); err != nil {
		return llmclient.Completion{}, err
	}
	return m.next.StreamText(ctx, req, onDelta)
}

func (m *signalControlled) wait(ctx context.Context) error {
	headers, ok := m.aware.LastRateLimitHeaders()
	if !ok {
		return nil
	}
	wait := m.adapter.NextWait(headers)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// -------- Logging --------

// WithLogging logs request size and errors. Provide a custom logger or nil
// to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{passthrough: passthrough{next}, log: logger}
	}
}

type logging struct {
	passthrough
	log *log.Logger
}

func requestBytes(req llmclient.Request) int {
	n := len(req.System)
	for _, m := range req.Messages {
		n += len(m.Content)
	}
	return n
}

func tag(ctx context.Context) string {
	if u := UnitFrom(ctx); u >= 0 {
		return PhaseFrom(ctx) + "#" + strconv.Itoa(u)
	}
	return PhaseFrom(ctx)
}

func (l *logging) GenerateText(ctx context.Context, req llmclient.Request) (string, error) {
	l.log.Printf("LLM request (%s, %s): %d bytes", tag(ctx), l.Name(), requestBytes(req))
	out, err := l.next.GenerateText(ctx, req)
	if err != nil {
		l.log.Printf("LLM error (%s): %v", tag(ctx), err)
	}
	return out, err
}

func (l *logging) StreamText(ctx context.Context, req llmclient.Request, onDelta llmclient.DeltaFunc) (llmclient.Completion, error) {
	l.log.Printf("LLM stream request (%s, %s): %d bytes", tag(ctx), l.Name(), requestBytes(req))
	out, err := l.next.StreamText(ctx, req, onDelta)
	if err != nil {
		l.log.Printf("LLM stream error (%s): %v", tag(ctx), err)
	}
	return out, err
}

// -------- Hooks --------

// WithHooks reports each call to the PromptHook stored in the request context.
func WithHooks() Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &hooked{passthrough: passthrough{next}}
	}
}

type hooked struct {
	passthrough
}

func (h *hooked) GenerateText(ctx context.Context, req llmclient.Request) (string, error) {
	hook := HookFrom(ctx)
	if hook == nil {
		return h.next.GenerateText(ctx, req)
	}
	phase := PhaseFrom(ctx)
	hook.Before(ctx, phase, req)
	out, err := h.next.GenerateText(ctx, req)
	hook.After(ctx, phase, out, err)
	return out, err
}

func (h *hooked) StreamText(ctx context.Context, req llmclient.Request, onDelta llmclient.DeltaFunc) (llmclient.Completion, error) {
	hook := HookFrom(ctx)
	if hook == nil {
		return h.next.StreamText(ctx, req, onDelta)
	}
	phase := PhaseFrom(ctx)
	hook.Before(ctx, phase, req)
	out, err := h.next.StreamText(ctx, req, onDelta)
	hook.After(ctx, phase, out.Text, err)
	return out, err
}

// -------- Temperature policy --------

// WithoutTemperature clears Request.Temperature for models that reject it.
func WithoutTemperature() Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &noTemperature{passthrough: passthrough{next}}
	}
}

type noTemperature struct {
	passthrough
}

func (n *noTemperature) GenerateText(ctx context.Context, req llmclient.Request) (string, error) {
	req.Temperature = nil
	return n.next.GenerateText(ctx, req)
}

func (n *noTemperature) StreamText(ctx context.Context, req llmclient.Request, onDelta llmclient.DeltaFunc) (llmclient.Completion, error) {
	req.Temperature = nil
	return n.next.StreamText(ctx, req, onDelta)
}
