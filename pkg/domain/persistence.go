package domain

import "context"

// Default logical keys for the two persisted snapshot halves.
const (
	DefaultParametersKey = "bloodParameters"
	DefaultSeriesKey     = "bloodTestData"
)

// KeyValueStore is the durable backend the snapshot is written to. A Get
// after a Set with the same key must return byte-identical data. Get returns
// ErrKeyNotFound (possibly wrapped) when nothing is stored under key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
