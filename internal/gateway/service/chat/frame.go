package chat

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"prism/internal/pipeline"
	"prism/internal/ratelimit"
)

const (
	FrameThinking  = "thinking"
	FrameDetails   = "details"
	FrameTextDelta = "text-delta"
	FrameError     = "error"
	FrameFinish    = "finish"
)

// Frame is the wire form of a pipeline event. A text-delta frame always
// carries "delta", which is null for keepalive chunks.
type Frame struct {
	Type       string          `json:"type"`
	Content    string          `json:"content,omitempty"`
	Data       *pipeline.State `json:"data,omitempty"`
	Delta      *string         `json:"-"`
	Code       string          `json:"code,omitempty"`
	Message    string          `json:"message,omitempty"`
	RetryAfter int             `json:"retryAfter,omitempty"`
	MessageID  string          `json:"messageId,omitempty"`
}

func (f Frame) MarshalJSON() ([]byte, error) {
	type plain Frame
	if f.Type != FrameTextDelta {
		return json.Marshal(plain(f))
	}
	return json.Marshal(struct {
		plain
		Delta *string `json:"delta"`
	}{plain(f), f.Delta})
}

// FrameFor maps a pipeline event to its frame. Pipeline errors are reported
// with a generic message; the cause stays in the server log.
func FrameFor(e pipeline.Event) (Frame, bool) {
	switch e.Kind {
	case pipeline.EventProgress:
		return Frame{Type: FrameThinking, Content: e.Note}, true
	case pipeline.EventState:
		return Frame{Type: FrameDetails, Data: e.State}, true
	case pipeline.EventToken:
		return Frame{Type: FrameTextDelta, Delta: e.Token}, true
	case pipeline.EventError:
		return Frame{Type: FrameError, Code: CodeUpstream, Message: "An error occurred while generating the response."}, true
	case pipeline.EventFinish:
		return Frame{Type: FrameFinish, MessageID: e.MessageID}, true
	}
	return Frame{}, false
}

// ErrorFrame reports a request failure that happened before the pipeline.
func ErrorFrame(err *Error) Frame {
	f := Frame{Type: FrameError, Code: err.Code, Message: err.Message}
	if err.RetryAfter > 0 {
		f.RetryAfter = int(err.RetryAfter / time.Second)
	}
	return f
}

// SetRateLimitHeaders writes the X-RateLimit-* headers, plus Retry-After when
// the decision denies the request.
func SetRateLimitHeaders(h http.Header, d ratelimit.Decision, now time.Time) {
	if d.Limit <= 0 {
		return
	}
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", d.Reset.UTC().Format(time.RFC3339))
	if !d.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(d.RetryAfter(now)/time.Second)))
	}
}
