package rpc

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"prism/internal/gateway/handler"
	messagerepo "prism/internal/gateway/repository/message"
	chatsvc "prism/internal/gateway/service/chat"
	"prism/internal/llm"
	"prism/internal/pipeline"
	"prism/internal/ratelimit"
)

func newServer(t *testing.T, limiter ratelimit.Limiter) *httptest.Server {
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
	svc := chatsvc.New(orch, catalog, store, opts...)

	mux := http.NewServeMux()
	mux.Handle(NewPrismServiceHandler(NewPrismHandler(svc)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func chatRequest(t *testing.T, user string) *connect.Request[structpb.Struct] {
	t.Helper()
	msg, err := structpb.NewStruct(map[string]any{
		"id": "chat-rpc",
		"messages": []any{
			map[string]any{"role": "user", "content": "Should I learn Go?"},
		},
	})
	require.NoError(t, err)
	req := connect.NewRequest(msg)
	if user != "" {
		req.Header().Set(handler.UserHeader, user)
	}
	return req
}

func TestChat_StreamsFramesAndStoresState(t *testing.T) {
	srv := newServer(t, nil)
	ctx := context.Background()
	chat := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+ChatProcedure)

	stream, err := chat.CallServerStream(ctx, chatRequest(t, "u1"))
	require.NoError(t, err)
	defer stream.Close()

	var types []string
	var messageID string
	for stream.Receive() {
		fields := stream.Msg().GetFields()
		typ := fields["type"].GetStringValue()
		types = append(types, typ)
		if typ == chatsvc.FrameFinish {
			messageID = fields["messageId"].GetStringValue()
		}
	}
	require.NoError(t, stream.Err())
	require.NotEmpty(t, types)
	assert.Equal(t, chatsvc.FrameThinking, types[0])
	assert.Equal(t, chatsvc.FrameFinish, types[len(types)-1])
	require.NotEmpty(t, messageID)

	get := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+GetMessageStateProcedure)
	req, err := structpb.NewStruct(map[string]any{"messageId": messageID})
	require.NoError(t, err)
	resp, err := get.CallUnary(ctx, connect.NewRequest(req))
	require.NoError(t, err)
	state := resp.Msg.GetFields()["prism_data"].GetStructValue()
	require.NotNil(t, state)
	assert.Len(t, state.GetFields()["perspectives"].GetListValue().GetValues(), 7)
	answer := resp.Msg.GetFields()["answer"].GetStructValue()
	assert.Contains(t, answer.GetFields()["response"].GetStringValue(), "fake final answer")
}

func TestGetMessageState_NotFound(t *testing.T) {
	srv := newServer(t, nil)
	get := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+GetMessageStateProcedure)

	req, _ := structpb.NewStruct(map[string]any{"messageId": "missing"})
	_, err := get.CallUnary(context.Background(), connect.NewRequest(req))
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = get.CallUnary(context.Background(), connect.NewRequest(&structpb.Struct{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestChat_RateLimited(t *testing.T) {
	srv := newServer(t, ratelimit.NewSlidingWindow(1, time.Hour))
	chat := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+ChatProcedure)
	ctx := context.Background()

	first, err := chat.CallServerStream(ctx, chatRequest(t, "u1"))
	require.NoError(t, err)
	for first.Receive() {
	}
	require.NoError(t, first.Err())
	_ = first.Close()

	second, err := chat.CallServerStream(ctx, chatRequest(t, "u1"))
	require.NoError(t, err)
	defer second.Close()
	assert.False(t, second.Receive())
	var cerr *connect.Error
	require.True(t, errors.As(second.Err(), &cerr))
	assert.Equal(t, connect.CodeResourceExhausted, cerr.Code())
}

func TestChat_UnknownModel(t *testing.T) {
	srv := newServer(t, nil)
	chat := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+ChatProcedure)

	req := chatRequest(t, "")
	req.Msg.Fields["modelId"] = structpb.NewStringValue("nope")
	stream, err := chat.CallServerStream(context.Background(), req)
	require.NoError(t, err)
	defer stream.Close()
	assert.False(t, stream.Receive())
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(stream.Err()))
}
