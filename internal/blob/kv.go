package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"labtrack/pkg/domain"
)

var _ domain.KeyValueStore = (*KeyValue)(nil)

const snapshotContentType = "application/json"

// KeyValue stores snapshot payloads as objects named prefix+key.
type KeyValue struct {
	store  Store
	prefix string
}

// NewKeyValue adapts store into a domain.KeyValueStore.
func NewKeyValue(store Store, prefix string) *KeyValue {
	return &KeyValue{store: store, prefix: prefix}
}

// Get reads the object for key.
func (kv *KeyValue) Get(ctx context.Context, key string) ([]byte, error) {
	_, rc, err := kv.store.Get(ctx, kv.prefix+key)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get %s: %w", key, domain.ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Set replaces the object for key.
func (kv *KeyValue) Set(ctx context.Context, key string, value []byte) error {
	_, err := kv.store.Put(ctx, kv.prefix+key, bytes.NewReader(value), PutOptions{
		ContentType: snapshotContentType,
		Overwrite:   true,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Driver reports the underlying backend.
func (kv *KeyValue) Driver() Driver { return kv.store.Driver() }

// Close is a no-op; blob stores hold no connections.
func (kv *KeyValue) Close() error { return nil }
