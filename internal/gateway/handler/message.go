package handler

import (
	"encoding/json"
	"log"
	"net/http"

	chatsvc "prism/internal/gateway/service/chat"
	"prism/internal/prompt"
)

type MessageHandler struct {
	svc *chatsvc.Service
}

func NewMessageHandler(svc *chatsvc.Service) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type messageStateResponse struct {
	State  json.RawMessage     `json:"prism_data"`
	Answer *prompt.FinalAnswer `json:"answer,omitempty"`
}

// HandleMessageState serves GET /api/message?messageId=...
func (h *MessageHandler) HandleMessageState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	st, err := h.svc.MessageState(r.Context(), r.URL.Query().Get("messageId"))
	if err != nil {
		e := chatsvc.AsError(err)
		if e.Status >= http.StatusInternalServerError {
			log.Printf("gateway: message state lookup failed: %v", err)
		}
		writeJSON(w, e.Status, map[string]any{"error": e.Message})
		return
	}
	state := st.State
	if len(state) == 0 {
		state = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, messageStateResponse{State: state, Answer: st.Answer})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
