package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	llmclient "prism/internal/llmClient"
)

// FakeCall records one call observed by FakeClient.
type FakeCall struct {
	Phase   string
	Unit    int
	Stream  bool
	Request llmclient.Request
}

// FakeClient returns deterministic text per phase for offline runs and tests.
// Respond and Stream override the defaults; Stream tokens are delivered before
// its error is returned, so a mid-stream failure can be scripted.
type FakeClient struct {
	Respond   func(call FakeCall) (string, error)
	Stream    func(call FakeCall) ([]string, error)
	MessageID string
	Delay     time.Duration

	mu    sync.Mutex
	calls []FakeCall
}

func NewFakeClient() *FakeClient { return &FakeClient{MessageID: "msg-fake"} }

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

// Calls returns a copy of the calls seen so far in arrival order.
func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

func (f *FakeClient) record(ctx context.Context, req llmclient.Request, stream bool) (FakeCall, error) {
	call := FakeCall{Phase: PhaseFrom(ctx), Unit: UnitFrom(ctx), Stream: stream, Request: req}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.Delay > 0 {
		t := time.NewTimer(f.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return call, ctx.Err()
		case <-t.C:
		}
	}
	return call, ctx.Err()
}

func (f *FakeClient) GenerateText(ctx context.Context, req llmclient.Request) (string, error) {
	call, err := f.record(ctx, req, false)
	if err != nil {
		return "", err
	}
	if f.Respond != nil {
		return f.Respond(call)
	}
	return defaultFakeText(call), nil
}

func (f *FakeClient) StreamText(ctx context.Context, req llmclient.Request, onDelta llmclient.DeltaFunc) (llmclient.Completion, error) {
	call, err := f.record(ctx, req, true)
	if err != nil {
		return llmclient.Completion{}, err
	}
	var tokens []string
	var streamErr error
	if f.Stream != nil {
		tokens, streamErr = f.Stream(call)
	} else {
		tokens = defaultFakeTokens(call)
	}
	var sb strings.Builder
	for _, tok := range tokens {
		if err := ctx.Err(); err != nil {
			return llmclient.Completion{}, err
		}
		sb.WriteString(tok)
		if onDelta != nil {
			onDelta(tok)
		}
	}
	if streamErr != nil {
		return llmclient.Completion{}, streamErr
	}
	return llmclient.Completion{MessageID: f.MessageID, Text: sb.String()}, nil
}

func defaultFakeText(call FakeCall) string {
	if call.Unit >= 0 {
		return fmt.Sprintf("fake %s response #%d", call.Phase, call.Unit)
	}
	return fmt.Sprintf("fake %s response", call.Phase)
}

func defaultFakeTokens(call FakeCall) []string {
	return []string{
		"**Key Assumptions**:\n",
		"- the question is hypothetical\n\n",
		"",
		"**Response**: ",
		"fake ", call.Phase, " answer",
	}
}

// RegisterFakeModel registers client under the model id "fake".
func RegisterFakeModel(reg llmclient.ModelRegistrar, client llmclient.LLMClient) error {
	return reg.RegisterModel(llmclient.ModelRegistration{
		Provider: "fake",
		Model:    "fake",
		Factory: func(ctx context.Context) (llmclient.LLMClient, error) {
			return client, nil
		},
	})
}
