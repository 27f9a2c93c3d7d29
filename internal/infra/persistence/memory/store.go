// Package memory provides an in-memory key-value backend used for tests and
// ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"labtrack/pkg/domain"
)

var _ domain.KeyValueStore = (*Store)(nil)

// Store keeps payloads in a map. Values are copied on the way in and out so
// callers cannot mutate stored bytes.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns the payload stored under key or domain.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("memory store closed")
	}
	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, domain.ErrKeyNotFound)
	}
	return append([]byte(nil), v...), nil
}

// Set stores value under key, replacing any existing payload.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memory store closed")
	}
	s.data[key] = append([]byte{}, value...)
	return nil
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Close releases the store. Subsequent calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
