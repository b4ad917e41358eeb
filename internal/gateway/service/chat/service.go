// Package chat admits chat requests and runs them through the pipeline. It is
// shared by the websocket endpoint and the Connect service.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"prism/internal/gateway/entity"
	messagerepo "prism/internal/gateway/repository/message"
	llmclient "prism/internal/llmClient"
	"prism/internal/perspective"
	"prism/internal/pipeline"
	"prism/internal/prompt"
	"prism/internal/ratelimit"
)

// Request is the client payload of one chat turn.
type Request struct {
	ChatID   string              `json:"id"`
	Messages []llmclient.Message `json:"messages"`
	ModelID  string              `json:"modelId"`
	Mode     string              `json:"mode"`
}

// ModelCatalog reports which model ids can be resolved.
type ModelCatalog interface {
	Has(model string) bool
}

// Runner executes one turn.
type Runner interface {
	Run(ctx context.Context, turn pipeline.Turn, sink pipeline.Sink) (pipeline.Outcome, error)
}

type Service struct {
	runner       Runner
	models       ModelCatalog
	store        messagerepo.Store
	limiter      ratelimit.Limiter
	defaultModel string
	logger       *log.Logger
	now          func() time.Time
}

type Option func(*Service)

func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

func WithDefaultModel(model string) Option {
	return func(s *Service) { s.defaultModel = strings.TrimSpace(model) }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(runner Runner, models ModelCatalog, store messagerepo.Store, opts ...Option) *Service {
	s := &Service{
		runner: runner,
		models: models,
		store:  store,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limit checks the caller against the rate limiter. Limiter errors allow the
// request.
func (s *Service) Limit(ctx context.Context, userID entity.UserID, ip string) ratelimit.Decision {
	if s.limiter == nil {
		return ratelimit.Decision{Allowed: true}
	}
	d, err := s.limiter.Check(ctx, userID.String(), ip)
	if err != nil {
		s.logger.Printf("gateway: rate limit check failed for user=%q ip=%q: %v", userID, ip, err)
		return ratelimit.Decision{Allowed: true}
	}
	if !d.Allowed {
		s.logger.Printf("gateway: rate limit exceeded for user=%q ip=%q", userID, ip)
	}
	return d
}

// Start validates req and records the chat. The returned turn is ready to run.
func (s *Service) Start(ctx context.Context, userID entity.UserID, req Request) (pipeline.Turn, error) {
	msgs := make([]llmclient.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case llmclient.RoleUser, llmclient.RoleAssistant:
			msgs = append(msgs, m)
		}
	}
	userText := llmclient.LastUserText(msgs)
	if strings.TrimSpace(userText) == "" {
		return pipeline.Turn{}, invalid("a user message is required")
	}
	mode, err := perspective.ParseMode(req.Mode)
	if err != nil {
		return pipeline.Turn{}, invalid(err.Error())
	}
	model := strings.TrimSpace(req.ModelID)
	if model == "" {
		model = s.defaultModel
	}
	if model == "" || s.models == nil || !s.models.Has(model) {
		return pipeline.Turn{}, &Error{Code: CodeModelNotFound, Status: 404, Message: fmt.Sprintf("unknown model %q", model)}
	}

	chatID := strings.TrimSpace(req.ChatID)
	if chatID == "" {
		chatID = uuid.NewString()
	}
	if !userID.IsZero() && s.store != nil {
		chat := entity.Chat{
			ID:        chatID,
			UserID:    userID,
			Title:     entity.TitleFrom(firstUserText(msgs)),
			CreatedAt: s.now(),
		}
		if err := s.store.EnsureChat(ctx, chat); err != nil {
			return pipeline.Turn{}, &Error{Code: CodeInternal, Status: 500, Message: "failed to create chat", Err: err}
		}
	}
	return pipeline.Turn{
		ChatID:   chatID,
		UserID:   userID,
		Model:    model,
		Mode:     mode,
		Messages: msgs,
	}, nil
}

// Run executes turn and forwards every pipeline event to emit as a frame.
func (s *Service) Run(ctx context.Context, turn pipeline.Turn, emit func(Frame)) (pipeline.Outcome, error) {
	return s.runner.Run(ctx, turn, pipeline.SinkFunc(func(e pipeline.Event) {
		if f, ok := FrameFor(e); ok {
			emit(f)
		}
	}))
}

// MessageState is the stored state of one assistant message.
type MessageState struct {
	MessageID string
	ChatID    string
	State     json.RawMessage
	Answer    *prompt.FinalAnswer
}

func (s *Service) MessageState(ctx context.Context, messageID string) (MessageState, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return MessageState{}, invalid("messageId is required")
	}
	if s.store == nil {
		return MessageState{}, &Error{Code: CodeNotFound, Status: 404, Message: "message not found"}
	}
	m, err := s.store.GetMessageByID(ctx, messageID)
	if errors.Is(err, messagerepo.ErrNotFound) {
		return MessageState{}, &Error{Code: CodeNotFound, Status: 404, Message: "message not found", Err: err}
	}
	if err != nil {
		return MessageState{}, &Error{Code: CodeInternal, Status: 500, Message: "failed to load message", Err: err}
	}
	out := MessageState{MessageID: m.ID, ChatID: m.ChatID, State: m.State}
	if m.Role == entity.RoleAssistant {
		if a, ok := prompt.ParseFinalAnswer(m.Content); ok {
			out.Answer = &a
		}
	}
	return out, nil
}

func firstUserText(msgs []llmclient.Message) string {
	for _, m := range msgs {
		if m.Role == llmclient.RoleUser && strings.TrimSpace(m.Content) != "" {
			return m.Content
		}
	}
	return ""
}
