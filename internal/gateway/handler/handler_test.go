package handler

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	messagerepo "prism/internal/gateway/repository/message"
	chatsvc "prism/internal/gateway/service/chat"
	"prism/internal/llm"
	"prism/internal/pipeline"
	"prism/internal/ratelimit"
)

func newTestService(t *testing.T, limiter ratelimit.Limiter) *chatsvc.Service {
	t.Helper()
	catalog := llm.NewCatalog()
	require.NoError(t, llm.RegisterFakeModel(catalog, llm.NewFakeClient()))
	t.Cleanup(func() { _ = catalog.Close() })

	quiet := log.New(io.Discard, "", 0)
	store := messagerepo.NewMemoryStore()
	orch := pipeline.New(catalog,
		pipeline.WithMessageSaver(store),
		pipeline.WithLogger(quiet),
		pipeline.WithSleep(func(context.Context, time.Duration) error { return nil }),
	)
	opts := []chatsvc.Option{chatsvc.WithDefaultModel("fake"), chatsvc.WithLogger(quiet)}
	if limiter != nil {
		opts = append(opts, chatsvc.WithLimiter(limiter))
	}
	return chatsvc.New(orch, catalog, store, opts...)
}

func newTestServer(t *testing.T, svc *chatsvc.Service) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/chat", NewChatHandler(svc).HandleChatWS)
	mux.HandleFunc("/api/message", NewMessageHandler(svc).HandleMessageState)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type wireFrame struct {
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Data      json.RawMessage `json:"data"`
	Delta     *string         `json:"delta"`
	Code      string          `json:"code"`
	MessageID string          `json:"messageId"`
}

func dialChat(t *testing.T, srv *httptest.Server, user string) (*websocket.Conn, *http.Response) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	header := http.Header{}
	if user != "" {
		header.Set(UserHeader, user)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, resp
}

func readFrames(t *testing.T, conn *websocket.Conn) []wireFrame {
	t.Helper()
	var out []wireFrame
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var f wireFrame
		if err := conn.ReadJSON(&f); err != nil {
			return out
		}
		out = append(out, f)
		if f.Type == chatsvc.FrameFinish || f.Type == chatsvc.FrameError {
			return out
		}
	}
}

func TestChatWS_StreamsPipelineFrames(t *testing.T) {
	srv := newTestServer(t, newTestService(t, nil))
	conn, _ := dialChat(t, srv, "u1")

	require.NoError(t, conn.WriteJSON(map[string]any{
		"id":       "chat-1",
		"modelId":  "fake",
		"messages": []map[string]string{{"role": "user", "content": "Is free will real?"}},
	}))
	frames := readFrames(t, conn)
	require.NotEmpty(t, frames)

	var notes, text []string
	details := 0
	for _, f := range frames {
		switch f.Type {
		case chatsvc.FrameThinking:
			notes = append(notes, f.Content)
		case chatsvc.FrameDetails:
			details++
		case chatsvc.FrameTextDelta:
			if f.Delta != nil {
				text = append(text, *f.Delta)
			}
		}
	}
	require.Len(t, notes, 5)
	assert.Equal(t, pipeline.NotePerspectives, notes[0])
	assert.Equal(t, pipeline.NoteFinalSynthesis, notes[4])
	assert.Greater(t, details, 7)
	assert.Contains(t, strings.Join(text, ""), "fake final answer")

	last := frames[len(frames)-1]
	require.Equal(t, chatsvc.FrameFinish, last.Type)

	resp, err := http.Get(srv.URL + "/api/message?messageId=" + last.MessageID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		State  map[string]any `json:"prism_data"`
		Answer map[string]any `json:"answer"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body.State["isPrismMode"])
	assert.Contains(t, body.Answer["response"], "fake final answer")
}

func TestChatWS_RateLimited(t *testing.T) {
	lim := ratelimit.NewSlidingWindow(1, time.Hour)
	srv := newTestServer(t, newTestService(t, lim))

	conn, resp := dialChat(t, srv, "u1")
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	require.NoError(t, conn.WriteJSON(map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "q"}},
	}))
	frames := readFrames(t, conn)
	require.NotEmpty(t, frames)
	assert.Equal(t, chatsvc.FrameFinish, frames[len(frames)-1].Type)

	conn2, resp2 := dialChat(t, srv, "u1")
	assert.NotEmpty(t, resp2.Header.Get("Retry-After"))
	frames = readFrames(t, conn2)
	require.Len(t, frames, 1)
	assert.Equal(t, chatsvc.FrameError, frames[0].Type)
	assert.Equal(t, chatsvc.CodeRateLimited, frames[0].Code)
}

func TestChatWS_UnknownModel(t *testing.T) {
	srv := newTestServer(t, newTestService(t, nil))
	conn, _ := dialChat(t, srv, "")
	require.NoError(t, conn.WriteJSON(map[string]any{
		"modelId":  "no-such-model",
		"messages": []map[string]string{{"role": "user", "content": "q"}},
	}))
	frames := readFrames(t, conn)
	require.Len(t, frames, 1)
	assert.Equal(t, chatsvc.CodeModelNotFound, frames[0].Code)
}

func TestMessageState_HTTPErrors(t *testing.T) {
	srv := newTestServer(t, newTestService(t, nil))

	resp, err := http.Get(srv.URL + "/api/message")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/message?messageId=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientIP(t *testing.T) {
	h := http.Header{}
	h.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(h, "10.0.0.2:5555"))
	assert.Equal(t, "10.0.0.2", ClientIP(http.Header{}, "10.0.0.2:5555"))
	h = http.Header{}
	h.Set("X-Real-IP", "198.51.100.1")
	assert.Equal(t, "198.51.100.1", ClientIP(h, "10.0.0.2:5555"))
}
