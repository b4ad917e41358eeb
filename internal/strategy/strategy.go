package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	Parallel   Kind = "parallel"
	Sequential Kind = "sequential"
)

const (
	DefaultDelay      = 5 * time.Second
	DefaultHeavyDelay = 15 * time.Second
)

// Strategy says how the calls of one stage are scheduled. Delay separates
// consecutive calls of a fan-out stage; HeavyDelay precedes mediation and the
// final synthesis. Both are only honoured under Sequential.
type Strategy struct {
	Kind       Kind
	Delay      time.Duration
	HeavyDelay time.Duration
}

func (s Strategy) Sequential() bool { return s.Kind == Sequential }

func (s Strategy) String() string {
	if s.Kind == Sequential {
		return fmt.Sprintf("sequential(delay=%s, heavy=%s)", s.Delay, s.HeavyDelay)
	}
	return string(Parallel)
}

// Rule maps model ids containing Match (case-insensitive) to Strategy.
type Rule struct {
	Match    string
	Strategy Strategy
}

// Selector picks a Strategy per backend model id. Rules are checked in order;
// the first match wins and anything unmatched runs in parallel.
type Selector struct {
	rules []Rule
}

func NewSelector(rules ...Rule) *Selector {
	return &Selector{rules: append([]Rule(nil), rules...)}
}

// Default returns the production policy: distilled Llama models hosted on
// rate-limited free tiers run sequentially.
func Default() *Selector {
	return NewSelector(Rule{
		Match:    "distill-llama",
		Strategy: Strategy{Kind: Sequential, Delay: DefaultDelay, HeavyDelay: DefaultHeavyDelay},
	})
}

// For returns the strategy for modelID.
func (s *Selector) For(modelID string) Strategy {
	id := strings.ToLower(modelID)
	if s != nil {
		for _, r := range s.rules {
			if r.Match != "" && strings.Contains(id, strings.ToLower(r.Match)) {
				return r.Strategy
			}
		}
	}
	return Strategy{Kind: Parallel}
}

// WithDelays returns a copy whose sequential rules use the given delays.
func (s *Selector) WithDelays(delay, heavy time.Duration) *Selector {
	out := NewSelector(s.rules...)
	for i := range out.rules {
		if out.rules[i].Strategy.Kind == Sequential {
			out.rules[i].Strategy.Delay = delay
			out.rules[i].Strategy.HeavyDelay = heavy
		}
	}
	return out
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
