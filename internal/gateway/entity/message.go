package entity

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one persisted chat turn. State carries the serialized pipeline
// state and is only set on assistant messages.
type Message struct {
	ID        string          `json:"id"`
	ChatID    string          `json:"chatId"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
	State     json.RawMessage `json:"prism_data,omitempty"`
}

// Chat groups the messages of one conversation.
type Chat struct {
	ID        string    `json:"id"`
	UserID    UserID    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

const maxTitleRunes = 80

// TitleFrom derives a chat title from the first user message.
func TitleFrom(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(title) <= maxTitleRunes {
		return title
	}
	r := []rune(title)
	return strings.TrimSpace(string(r[:maxTitleRunes]))
}
