package message

import (
	"context"
	"errors"

	"prism/internal/gateway/entity"
)

var ErrNotFound = errors.New("message not found")

// Store persists chats and their messages. SaveMessages is atomic: either
// every message of the batch is stored or none is.
type Store interface {
	EnsureChat(ctx context.Context, chat entity.Chat) error
	GetChat(ctx context.Context, chatID string) (entity.Chat, error)
	SaveMessages(ctx context.Context, msgs []entity.Message) error
	GetMessageByID(ctx context.Context, id string) (entity.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]entity.Message, error)
}
