package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BootstrapMarker señala conversaciones recien creadas que pueden no
// ser visibles todavia para todos los lectores. Un miss del store con
// marcador presente se reporta como "sincronizando", no como 404.
type BootstrapMarker interface {
	Mark(ctx context.Context, conversationID string) error
	Pending(ctx context.Context, conversationID string) (bool, error)
}

type memoryBootstrapMarker struct {
	mu    sync.Mutex
	items map[string]time.Time
	ttl   time.Duration
}

func NewMemoryBootstrapMarker(ttl time.Duration) BootstrapMarker {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &memoryBootstrapMarker{
		items: make(map[string]time.Time),
		ttl:   ttl,
	}
}

func (m *memoryBootstrapMarker) Mark(_ context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[conversationID] = time.Now().UTC().Add(m.ttl)
	return nil
}

func (m *memoryBootstrapMarker) Pending(_ context.Context, conversationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.items[conversationID]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(exp) {
		delete(m.items, conversationID)
		return false, nil
	}
	return true, nil
}

type redisBootstrapMarker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisBootstrapMarker(client *redis.Client, ttl time.Duration) BootstrapMarker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &redisBootstrapMarker{
		client: client,
		ttl:    ttl,
		prefix: "chat:pending:",
	}
}

func (m *redisBootstrapMarker) Mark(ctx context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return m.client.Set(opCtx, m.prefix+conversationID, "1", m.ttl).Err()
}

func (m *redisBootstrapMarker) Pending(ctx context.Context, conversationID string) (bool, error) {
	if strings.TrimSpace(conversationID) == "" {
		return false, nil
	}
	opCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	n, err := m.client.Exists(opCtx, m.prefix+conversationID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
