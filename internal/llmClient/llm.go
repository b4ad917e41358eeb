package llmclient

import (
	"context"
	"errors"
)

var (
	ErrEmptyResponse = errors.New("empty response from LLM")
	ErrNoMessages    = errors.New("no messages to send")
)

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single model call. System is sent ahead of Messages.
// A nil Temperature leaves the provider default in place.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature *float32
}

// Completion is the result of a finished stream.
type Completion struct {
	MessageID string
	Text      string
}

// DeltaFunc receives streamed text. An empty delta marks a chunk that carried
// no text (reasoning, usage, keepalive).
type DeltaFunc func(delta string)

// LLMClient is the model invocation contract shared by providers and middleware.
type LLMClient interface {
	Name() string
	GenerateText(ctx context.Context, req Request) (string, error)
	StreamText(ctx context.Context, req Request, onDelta DeltaFunc) (Completion, error)
	Close() error
}

// LastUserText returns the content of the most recent user message.
func LastUserText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
