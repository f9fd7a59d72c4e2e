// Package threadstore persists serialized conversation threads keyed by
// session. It is a plain string cache: callers serialize threads before
// Set and deserialize after Get, treating malformed payloads as misses.
package threadstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/curielabs/curie/pkg/config"
)

// Store is the session thread cache contract. Get reports ok=false on a
// missing or expired key. A zero TTL means entries never expire.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NewStore builds the backend named by cfg.Backend: "memory" (default)
// or "sqlite".
func NewStore(cfg config.StoreConfig) (Store, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(ttl), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Path, ttl)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is the in-process backend. Expired entries are dropped
// lazily on Get.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	entry := memoryEntry{value: value}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
