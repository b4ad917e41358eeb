package message

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism/internal/gateway/entity"
	messagerepo "prism/internal/gateway/repository/message"
)

type countingOrigin struct {
	*messagerepo.MemoryStore

	mu       sync.Mutex
	getCalls int
	failSave bool
}

func newCountingOrigin() *countingOrigin {
	return &countingOrigin{MemoryStore: messagerepo.NewMemoryStore()}
}

func (s *countingOrigin) SaveMessages(ctx context.Context, msgs []entity.Message) error {
	if s.failSave {
		return fmt.Errorf("save failed")
	}
	return s.MemoryStore.SaveMessages(ctx, msgs)
}

func (s *countingOrigin) GetMessageByID(ctx context.Context, id string) (entity.Message, error) {
	s.mu.Lock()
	s.getCalls++
	s.mu.Unlock()
	return s.MemoryStore.GetMessageByID(ctx, id)
}

func TestCachedStore_SaveFillsCache(t *testing.T) {
	origin := newCountingOrigin()
	s := NewCachedStore(origin, DefaultCacheConfig())
	ctx := context.Background()

	require.NoError(t, s.SaveMessages(ctx, []entity.Message{
		{ID: "m1", ChatID: "c", Role: entity.RoleAssistant, State: []byte(`{"x":1}`)},
	}))
	got, err := s.GetMessageByID(ctx, "m1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(got.State))
	assert.Equal(t, 0, origin.getCalls)
	assert.Equal(t, uint64(1), s.Metrics().Hits)
}

func TestCachedStore_MissReadsThrough(t *testing.T) {
	origin := newCountingOrigin()
	ctx := context.Background()
	require.NoError(t, origin.MemoryStore.SaveMessages(ctx, []entity.Message{{ID: "m1", ChatID: "c", Role: entity.RoleUser}}))
	s := NewCachedStore(origin, CacheConfig{})

	for i := 0; i < 3; i++ {
		_, err := s.GetMessageByID(ctx, "m1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, origin.getCalls)
	m := s.Metrics()
	assert.Equal(t, uint64(1), m.Misses)
	assert.Equal(t, uint64(2), m.Hits)
}

func TestCachedStore_NotFoundIsNotCached(t *testing.T) {
	origin := newCountingOrigin()
	s := NewCachedStore(origin, DefaultCacheConfig())
	ctx := context.Background()

	_, err := s.GetMessageByID(ctx, "nope")
	assert.ErrorIs(t, err, messagerepo.ErrNotFound)
	_, err = s.GetMessageByID(ctx, "nope")
	assert.ErrorIs(t, err, messagerepo.ErrNotFound)
	assert.Equal(t, 2, origin.getCalls)
	assert.Equal(t, uint64(2), s.Metrics().OriginReadErr)
}

func TestCachedStore_FailedSaveLeavesCacheEmpty(t *testing.T) {
	origin := newCountingOrigin()
	origin.failSave = true
	s := NewCachedStore(origin, DefaultCacheConfig())
	ctx := context.Background()

	require.Error(t, s.SaveMessages(ctx, []entity.Message{{ID: "m1", ChatID: "c", Role: entity.RoleUser}}))
	_, err := s.GetMessageByID(ctx, "m1")
	assert.ErrorIs(t, err, messagerepo.ErrNotFound)
	assert.Equal(t, uint64(1), s.Metrics().OriginWriteErr)
}

func TestCachedStore_Eviction(t *testing.T) {
	origin := newCountingOrigin()
	s := NewCachedStore(origin, CacheConfig{MaxEntries: 1})
	ctx := context.Background()

	require.NoError(t, s.SaveMessages(ctx, []entity.Message{
		{ID: "a", ChatID: "c", Role: entity.RoleUser},
		{ID: "b", ChatID: "c", Role: entity.RoleAssistant},
	}))
	_, err := s.GetMessageByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, origin.getCalls)
}
