package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *ChatCompletionsClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewChatCompletionsClient(ChatCompletionsConfig{
		Provider: "test",
		APIKey:   "k",
		BaseURL:  srv.URL + "/",
		Model:    "m",
	})
	require.NoError(t, err)
	return c
}

func TestChatCompletions_GenerateText(t *testing.T) {
	var got chatReq
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"id":"c1","choices":[{"message":{"content":"hello"}}]}`)
	})
	temp := float32(0.2)
	out, err := c.GenerateText(context.Background(), Request{
		System:      "be brief",
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.2, *got.Temperature, 1e-6)
	assert.False(t, got.Stream)
}

func TestChatCompletions_StreamText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range []string{
			`data: {"id":"s1","choices":[{"delta":{"content":"Key"}}]}`,
			`data: {"id":"s1","choices":[{"delta":{}}]}`,
			`: keepalive`,
			`data: {"id":"s1","choices":[{"delta":{"content":" Assumptions"}}]}`,
			`data: [DONE]`,
		} {
			fmt.Fprintf(w, "%s\n\n", line)
		}
	})
	var deltas []string
	comp, err := c.StreamText(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, func(d string) { deltas = append(deltas, d) })
	require.NoError(t, err)
	assert.Equal(t, "s1", comp.MessageID)
	assert.Equal(t, "Key Assumptions", comp.Text)
	assert.Equal(t, []string{"Key", "", " Assumptions"}, deltas)
}

func TestChatCompletions_StreamErrorChunkFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"id\":\"s1\",\"choices\":[{\"delta\":{\"content\":\"**Key Assumptions**: x\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"upstream overloaded\"}}\n\n")
	})
	var deltas []string
	_, err := c.StreamText(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, func(d string) { deltas = append(deltas, d) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream overloaded")
	assert.Equal(t, []string{"**Key Assumptions**: x"}, deltas)
}

func TestChatCompletions_StreamWithoutDoneIsTruncated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"id\":\"s1\",\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
	})
	_, err := c.StreamText(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestChatCompletions_EmptyStreamWithoutDone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ": keepalive\n\n")
	})
	_, err := c.StreamText(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, nil)
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestChatCompletions_StatusErrors(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		permanent bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, true},
		{"context length", http.StatusBadRequest, `{"error":{"code":"context_length_exceeded"}}`, true},
		{"server error", http.StatusInternalServerError, `oops`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})
			_, err := c.GenerateText(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
			require.Error(t, err)
			var perm *PermanentError
			assert.Equal(t, tc.permanent, errors.As(err, &perm))
		})
	}
}

func TestChatCompletions_ObservesRateLimitHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-remaining-requests", "0")
		w.Header().Set("x-ratelimit-reset-requests", "2s")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	})
	var seen int
	c.SetRateLimitHeaderHandler(func(RateLimitHeaders) { seen++ })
	_, err := c.GenerateText(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	h, ok := c.LastRateLimitHeaders()
	require.True(t, ok)
	assert.Equal(t, 1, seen)
	assert.Equal(t, 0, h.RemainingRequests)
	assert.Positive(t, HeaderRateLimitControlAdapter{}.NextWait(h))
}

func TestChatCompletions_NoMessagesIsPermanent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.GenerateText(context.Background(), Request{})
	assert.True(t, errors.Is(err, ErrNoMessages))
}

func TestNewGroqClient_RequiresKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	_, err := NewGroqClient("", "llama")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "GROQ_API_KEY"))
}

func TestLastUserText(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
		{Role: RoleAssistant, Content: "trailing"},
	}
	assert.Equal(t, "second", LastUserText(msgs))
	assert.Equal(t, "", LastUserText(nil))
}
