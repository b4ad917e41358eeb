package message

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism/internal/gateway/entity"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureChat(ctx, entity.Chat{ID: "c1", UserID: "u1", Title: "hello"}))

	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	err := s.SaveMessages(ctx, []entity.Message{
		{ID: "m1", ChatID: "c1", Role: entity.RoleUser, Content: "q", CreatedAt: t0},
		{ID: "m2", ChatID: "c1", Role: entity.RoleAssistant, Content: "a", CreatedAt: t0.Add(time.Second), State: json.RawMessage(`{"mode":"prism"}`)},
	})
	require.NoError(t, err)

	got, err := s.GetMessageByID(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Content)
	assert.JSONEq(t, `{"mode":"prism"}`, string(got.State))

	list, err := s.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m1", list[0].ID)
	assert.Equal(t, "m2", list[1].ID)
}

func TestMemoryStore_SaveIsAllOrNothing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	err := s.SaveMessages(ctx, []entity.Message{
		{ID: "m1", ChatID: "c1", Role: entity.RoleUser},
		{ID: "", ChatID: "c1", Role: entity.RoleAssistant},
	})
	require.Error(t, err)

	_, err = s.GetMessageByID(ctx, "m1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_EnsureChatKeepsFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureChat(ctx, entity.Chat{ID: "c1", Title: "first"}))
	require.NoError(t, s.EnsureChat(ctx, entity.Chat{ID: "c1", Title: "second"}))

	chat, err := s.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "first", chat.Title)

	_, err = s.GetChat(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_StateIsCopied(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	state := json.RawMessage(`{"a":1}`)
	require.NoError(t, s.SaveMessages(ctx, []entity.Message{{ID: "m", ChatID: "c", Role: entity.RoleAssistant, State: state}}))
	state[2] = 'b'

	got, err := s.GetMessageByID(ctx, "m")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got.State))
}

func TestMemoryStore_Nil(t *testing.T) {
	var s *MemoryStore
	_, err := s.GetMessageByID(context.Background(), "x")
	assert.Error(t, err)
}
