// Package message caches persisted messages in front of a message store.
// Messages are immutable once written, so entries are filled on save and
// served until evicted.
package message

import (
	"context"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"prism/internal/gateway/entity"
	messagerepo "prism/internal/gateway/repository/message"
)

type Store = messagerepo.Store

type CacheConfig struct {
	MaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{MaxEntries: 1024}
}

type MetricsSnapshot struct {
	Hits           uint64
	Misses         uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	hits           atomic.Uint64
	misses         atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:           m.hits.Load(),
		Misses:         m.misses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

type CachedStore struct {
	origin  Store
	cache   *lru.Cache[string, entity.Message]
	metrics Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultCacheConfig().MaxEntries
	}
	cache, _ := lru.New[string, entity.Message](cfg.MaxEntries)
	return &CachedStore{origin: origin, cache: cache}
}

var _ Store = (*CachedStore)(nil)

func (s *CachedStore) EnsureChat(ctx context.Context, chat entity.Chat) error {
	return s.origin.EnsureChat(ctx, chat)
}

func (s *CachedStore) GetChat(ctx context.Context, chatID string) (entity.Chat, error) {
	return s.origin.GetChat(ctx, chatID)
}

func (s *CachedStore) SaveMessages(ctx context.Context, msgs []entity.Message) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.SaveMessages(ctx, msgs); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	for _, m := range msgs {
		s.cache.Add(strings.TrimSpace(m.ID), cloneMessage(m))
	}
	return nil
}

func (s *CachedStore) GetMessageByID(ctx context.Context, id string) (entity.Message, error) {
	key := strings.TrimSpace(id)
	if m, ok := s.cache.Get(key); ok {
		s.metrics.hits.Add(1)
		return cloneMessage(m), nil
	}
	s.metrics.misses.Add(1)
	s.metrics.originReads.Add(1)
	m, err := s.origin.GetMessageByID(ctx, key)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return entity.Message{}, err
	}
	s.cache.Add(key, cloneMessage(m))
	return m, nil
}

func (s *CachedStore) ListMessages(ctx context.Context, chatID string) ([]entity.Message, error) {
	return s.origin.ListMessages(ctx, chatID)
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	return s.metrics.snapshot()
}

func cloneMessage(m entity.Message) entity.Message {
	m.State = append([]byte(nil), m.State...)
	return m
}
