package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"prism/internal/gateway/handler"
	chatsvc "prism/internal/gateway/service/chat"
)

const PrismServiceName = "prism.v1.PrismService"

const (
	GetMessageStateProcedure = "/" + PrismServiceName + "/GetMessageState"
	ChatProcedure            = "/" + PrismServiceName + "/Chat"
)

// PrismHandler exposes the chat pipeline over Connect. Messages are
// google.protobuf.Struct values shaped like the websocket payloads.
type PrismHandler struct {
	svc *chatsvc.Service
	now func() time.Time
}

func NewPrismHandler(svc *chatsvc.Service) *PrismHandler {
	return &PrismHandler{svc: svc, now: time.Now}
}

// NewPrismServiceHandler returns the mount path and handler for the service.
func NewPrismServiceHandler(h *PrismHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	getState := connect.NewUnaryHandler(GetMessageStateProcedure, h.GetMessageState, opts...)
	chat := connect.NewServerStreamHandler(ChatProcedure, h.Chat, opts...)
	return "/" + PrismServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GetMessageStateProcedure:
			getState.ServeHTTP(w, r)
		case ChatProcedure:
			chat.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func (h *PrismHandler) GetMessageState(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	id := req.Msg.GetFields()["messageId"].GetStringValue()
	st, err := h.svc.MessageState(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	out := map[string]any{"messageId": st.MessageID, "chatId": st.ChatID, "prism_data": nil}
	if len(st.State) > 0 {
		var state any
		if err := json.Unmarshal(st.State, &state); err != nil {
			return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("decode message state: %w", err))
		}
		out["prism_data"] = state
	}
	if st.Answer != nil {
		out["answer"] = map[string]any{
			"keyAssumptions": st.Answer.KeyAssumptions,
			"response":       st.Answer.Response,
		}
	}
	msg, err := structpb.NewStruct(out)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func (h *PrismHandler) Chat(ctx context.Context, req *connect.Request[structpb.Struct], stream *connect.ServerStream[structpb.Struct]) error {
	userID := handler.UserFromRequestHeader(req.Header())
	ip := handler.ClientIP(req.Header(), req.Peer().Addr)
	decision := h.svc.Limit(ctx, userID, ip)
	chatsvc.SetRateLimitHeaders(stream.ResponseHeader(), decision, h.now())
	if !decision.Allowed {
		return toConnectError(chatsvc.RateLimited(decision, h.now()))
	}

	raw, err := protojson.Marshal(req.Msg)
	if err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	var in chatsvc.Request
	if err := json.Unmarshal(raw, &in); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid chat request: %w", err))
	}
	turn, err := h.svc.Start(ctx, userID, in)
	if err != nil {
		return toConnectError(err)
	}

	var sendErr error
	_, runErr := h.svc.Run(context.WithoutCancel(ctx), turn, func(f chatsvc.Frame) {
		if sendErr != nil {
			return
		}
		msg, err := frameStruct(f)
		if err != nil {
			sendErr = err
			return
		}
		sendErr = stream.Send(msg)
	})
	if runErr != nil {
		log.Printf("gateway: chat %s run failed: %v", turn.ChatID, runErr)
	}
	if sendErr != nil {
		log.Printf("gateway: chat %s stream send failed: %v", turn.ChatID, sendErr)
	}
	return nil
}

func frameStruct(f chatsvc.Frame) (*structpb.Struct, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func toConnectError(err error) error {
	e := chatsvc.AsError(err)
	switch e.Status {
	case http.StatusBadRequest:
		return connect.NewError(connect.CodeInvalidArgument, e)
	case http.StatusNotFound:
		return connect.NewError(connect.CodeNotFound, e)
	case http.StatusTooManyRequests:
		return connect.NewError(connect.CodeResourceExhausted, e)
	default:
		log.Printf("gateway: rpc failed: %v", err)
		return connect.NewError(connect.CodeInternal, fmt.Errorf("prism service failed: %w", e))
	}
}
