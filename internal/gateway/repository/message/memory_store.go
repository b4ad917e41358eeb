package message

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"prism/internal/gateway/entity"
)

type MemoryStore struct {
	mu       sync.RWMutex
	chats    map[string]entity.Chat
	messages map[string]entity.Message
	byChat   map[string][]string
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:    make(map[string]entity.Chat),
		messages: make(map[string]entity.Message),
		byChat:   make(map[string][]string),
		now:      time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) EnsureChat(_ context.Context, chat entity.Chat) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	chat.ID = strings.TrimSpace(chat.ID)
	if chat.ID == "" {
		return fmt.Errorf("chat_id is required")
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chat.ID]; ok {
		return nil
	}
	s.chats[chat.ID] = chat
	return nil
}

func (s *MemoryStore) GetChat(_ context.Context, chatID string) (entity.Chat, error) {
	if s == nil {
		return entity.Chat{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.chats[strings.TrimSpace(chatID)]
	if !ok {
		return entity.Chat{}, ErrNotFound
	}
	return chat, nil
}

func (s *MemoryStore) SaveMessages(_ context.Context, msgs []entity.Message) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	for i, m := range msgs {
		if err := validate(m); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.State = append([]byte(nil), m.State...)
		if _, exists := s.messages[m.ID]; !exists {
			s.byChat[m.ChatID] = append(s.byChat[m.ChatID], m.ID)
		}
		s.messages[m.ID] = m
	}
	return nil
}

func (s *MemoryStore) GetMessageByID(_ context.Context, id string) (entity.Message, error) {
	if s == nil {
		return entity.Message{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[strings.TrimSpace(id)]
	if !ok {
		return entity.Message{}, ErrNotFound
	}
	m.State = append([]byte(nil), m.State...)
	return m, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, chatID string) ([]entity.Message, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byChat[strings.TrimSpace(chatID)]
	out := make([]entity.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.messages[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func validate(m entity.Message) error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(m.ChatID) == "" {
		return fmt.Errorf("chat_id is required")
	}
	switch m.Role {
	case entity.RoleUser, entity.RoleAssistant:
	default:
		return fmt.Errorf("unknown role %q", m.Role)
	}
	return nil
}
