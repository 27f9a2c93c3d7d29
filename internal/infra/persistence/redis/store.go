// Package redis provides a key-value backend storing payloads as Redis
// strings.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labtrack/pkg/domain"

	"github.com/go-redis/redis/v8"
)

var _ domain.KeyValueStore = (*Store)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key.
	Prefix string
}

// commander is the subset of *redis.Client the store needs.
type commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Store persists payloads without expiry.
type Store struct {
	c      commander
	prefix string
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	s := newStore(client, opts.Prefix)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return s, nil
}

func newStore(c commander, prefix string) *Store {
	return &Store{c: c, prefix: prefix}
}

func (s *Store) key(k string) string { return s.prefix + k }

// Get returns the payload stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.c.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get %s: %w", key, domain.ErrKeyNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value under key with no expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.c.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error { return s.c.Close() }
