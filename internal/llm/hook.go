package llm

import (
	"context"

	llmclient "prism/internal/llmClient"
)

// PromptHook observes every model call that passes through WithHooks.
// Implementations must be safe for concurrent use.
type PromptHook interface {
	Before(ctx context.Context, phase string, req llmclient.Request)
	After(ctx context.Context, phase string, text string, err error)
}

type ctxKeyHook struct{}
type ctxKeyPhase struct{}
type ctxKeyUnit struct{}

// WithHook attaches a PromptHook to ctx. Calls made with the returned context
// are reported to hook by the WithHooks middleware.
func WithHook(ctx context.Context, hook PromptHook) context.Context {
	if hook == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if v := ctx.Value(ctxKeyHook{}); v != nil {
		if h, ok := v.(PromptHook); ok {
			return h
		}
	}
	return nil
}

func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}

// WithUnit tags ctx with the perspective index a call belongs to.
func WithUnit(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, ctxKeyUnit{}, index)
}

// UnitFrom returns the perspective index, or -1 for calls that are not
// bound to a single perspective.
func UnitFrom(ctx context.Context) int {
	if v := ctx.Value(ctxKeyUnit{}); v != nil {
		if i, ok := v.(int); ok {
			return i
		}
	}
	return -1
}
