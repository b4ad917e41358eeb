package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	chatsvc "prism/internal/gateway/service/chat"
)

const (
	chatWSWriteWait   = 10 * time.Second
	chatWSPongWait    = 60 * time.Second
	chatWSPingEvery   = (chatWSPongWait * 9) / 10
	chatWSRequestWait = 30 * time.Second
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// ChatHandler serves /ws/chat. Each connection carries one turn: the client
// sends a single request and receives the pipeline frames until finish or
// error, after which the server closes the socket.
type ChatHandler struct {
	svc *chatsvc.Service
	now func() time.Time
}

func NewChatHandler(svc *chatsvc.Service) *ChatHandler {
	return &ChatHandler{svc: svc, now: time.Now}
}

func (h *ChatHandler) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	userID := UserFromRequest(r)
	ip := ClientIP(r.Header, r.RemoteAddr)
	decision := h.svc.Limit(r.Context(), userID, ip)

	respHeader := http.Header{}
	chatsvc.SetRateLimitHeaders(respHeader, decision, h.now())
	conn, err := chatWSUpgrader.Upgrade(w, r, respHeader)
	if err != nil {
		return
	}
	defer conn.Close()

	connCtx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writeCh := make(chan chatsvc.Frame, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-connCtx.Done():
				return
			case out, ok := <-writeCh:
				_ = conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					cancel()
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()
	push := func(f chatsvc.Frame) {
		select {
		case writeCh <- f:
		case <-writerDone:
		}
	}
	finish := func() {
		close(writeCh)
		<-writerDone
	}

	if !decision.Allowed {
		push(chatsvc.ErrorFrame(chatsvc.RateLimited(decision, h.now())))
		finish()
		return
	}

	var req chatsvc.Request
	_ = conn.SetReadDeadline(time.Now().Add(chatWSRequestWait))
	if err := conn.ReadJSON(&req); err != nil {
		push(chatsvc.ErrorFrame(&chatsvc.Error{Code: chatsvc.CodeInvalidArgument, Message: "invalid chat request"}))
		finish()
		return
	}

	turn, err := h.svc.Start(connCtx, userID, req)
	if err != nil {
		e := chatsvc.AsError(err)
		if e.Status >= http.StatusInternalServerError {
			log.Printf("gateway: chat %s rejected: %v", req.ChatID, err)
		}
		push(chatsvc.ErrorFrame(e))
		finish()
		return
	}

	// Control frames are only processed while reading.
	_ = conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	// A client that goes away does not stop the run; the turn is still
	// persisted.
	runCtx := context.WithoutCancel(r.Context())
	if _, err := h.svc.Run(runCtx, turn, push); err != nil {
		log.Printf("gateway: chat %s run failed: %v", turn.ChatID, err)
	}
	finish()
}
