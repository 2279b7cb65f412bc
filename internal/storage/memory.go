// Package storage provides settings persistence implementations.
package storage

import (
	"context"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.SettingsStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory settings store. Safe for concurrent access.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]*yaml.Node
	log    *logger.Logger
}

// NewMemoryStore creates an empty in-memory settings store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		values: make(map[string]*yaml.Node),
		log:    log,
	}
}

// Set stores a value. Overwrites if it already exists.
func (s *MemoryStore) Set(ctx context.Context, key string, value any) error {
	node, err := encodeValue(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("setting %s", key)
	s.values[key] = node
	return nil
}

// Get decodes the value stored under key into out.
func (s *MemoryStore) Get(ctx context.Context, key string, out any) error {
	s.mu.RLock()
	node, ok := s.values[key]
	s.mu.RUnlock()

	if !ok {
		return domain.ErrNotFound
	}
	return decodeValue(node, out)
}

// Delete removes a key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return domain.ErrNotFound
	}
	delete(s.values, key)
	s.log.Debug("deleted %s", key)
	return nil
}

// Keys returns all stored keys in sorted order.
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// SetRaw stores an already-encoded node. Used by tests to plant corrupt data.
func (s *MemoryStore) SetRaw(key string, node *yaml.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = node
}
