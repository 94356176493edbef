package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

func (m memoryItem) expired() bool {
	return !m.expireAt.IsZero() && time.Now().After(m.expireAt)
}

// MemoryStore is an in-memory Store. Used by tests and as a degraded-mode
// stand-in when Redis is unreachable.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryItem)}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.RLock()
	item, ok := s.data[key]
	s.mu.RUnlock()
	if !ok || item.expired() {
		if ok {
			s.mu.Lock()
			delete(s.data, key)
			s.mu.Unlock()
		}
		return ErrNotFound
	}
	return json.Unmarshal(item.data, dest)
}

func (s *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.data[key] = memoryItem{data: data, expireAt: expireAt}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.data, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Scan(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k, item := range s.data {
		if strings.HasPrefix(k, prefix) && !item.expired() {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
