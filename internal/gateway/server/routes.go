package server

import (
	"net/http"

	"prism/internal/gateway/handler"
	"prism/internal/gateway/handler/rpc"
	"prism/internal/gateway/middleware"
)

func NewMux(
	prismHandler *rpc.PrismHandler,
	chatHandler *handler.ChatHandler,
	messageHandler *handler.MessageHandler,
) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(rpc.NewPrismServiceHandler(prismHandler))

	// Chat transport
	mux.HandleFunc("/ws/chat", chatHandler.HandleChatWS)
	mux.HandleFunc("/api/message", messageHandler.HandleMessageState)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Middleware
	return middleware.CORS(mux)
}
