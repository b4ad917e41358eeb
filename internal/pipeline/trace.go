package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"prism/internal/llm"
	llmclient "prism/internal/llmClient"
)

// TraceStore archives the call trace of a finished run.
type TraceStore interface {
	PutTrace(ctx context.Context, runID string, raw []byte) error
}

// TraceCall is one model call as seen by the trace hook.
type TraceCall struct {
	Stage      string    `json:"stage"`
	Unit       int       `json:"unit"`
	System     string    `json:"system,omitempty"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Trace is the archived document for one run.
type Trace struct {
	RunID      string      `json:"runId"`
	ChatID     string      `json:"chatId"`
	Model      string      `json:"model"`
	Strategy   string      `json:"strategy"`
	Status     string      `json:"status"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt"`
	Calls      []TraceCall `json:"calls"`
}

// traceHook records calls made under a run context. Fan-out calls report
// concurrently, hence the lock.
type traceHook struct {
	now func() time.Time

	mu    sync.Mutex
	calls []TraceCall
}

var _ llm.PromptHook = (*traceHook)(nil)

func (h *traceHook) Before(ctx context.Context, phase string, req llmclient.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, TraceCall{
		Stage:     phase,
		Unit:      llm.UnitFrom(ctx),
		System:    req.System,
		StartedAt: h.now(),
	})
}

func (h *traceHook) After(ctx context.Context, phase string, text string, err error) {
	unit := llm.UnitFrom(ctx)
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.calls) - 1; i >= 0; i-- {
		c := &h.calls[i]
		if c.Stage != phase || c.Unit != unit || !c.FinishedAt.IsZero() {
			continue
		}
		c.Output = text
		if err != nil {
			c.Error = err.Error()
		}
		c.FinishedAt = h.now()
		return
	}
}

func (h *traceHook) snapshot() []TraceCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]TraceCall(nil), h.calls...)
}

func (r *run) archiveTrace(ctx context.Context, runErr error) {
	store := r.o.traces
	if store == nil || r.hook == nil {
		return
	}
	doc := Trace{
		RunID:      r.id,
		ChatID:     r.turn.ChatID,
		Model:      r.turn.Model,
		Strategy:   r.strat.String(),
		Status:     "done",
		StartedAt:  r.started,
		FinishedAt: r.o.now(),
		Calls:      r.hook.snapshot(),
	}
	if runErr != nil {
		doc.Status = "failed"
		doc.Error = runErr.Error()
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		r.o.logger.Printf("prism: encode trace %s: %v", r.id, err)
		return
	}
	if err := store.PutTrace(ctx, r.id, raw); err != nil {
		r.o.logger.Printf("prism: archive trace %s: %v", r.id, err)
	}
}
