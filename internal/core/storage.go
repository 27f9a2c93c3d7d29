package core

import (
	"context"
	"fmt"
	"io"

	"labtrack/internal/blob"
	"labtrack/internal/config"
	"labtrack/internal/infra/persistence/memory"
	"labtrack/internal/infra/persistence/postgres"
	"labtrack/internal/infra/persistence/redis"
	"labtrack/internal/infra/persistence/sqlite"
	"labtrack/pkg/domain"
)

// Backend is a key-value store that owns resources.
type Backend interface {
	domain.KeyValueStore
	io.Closer
}

// OpenKeyValueStore constructs the backend selected by cfg.Driver.
func OpenKeyValueStore(ctx context.Context, cfg config.Storage) (Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverSQLite, "":
		return backend(sqlite.NewStore(cfg.SQLitePath))
	case config.DriverPostgres:
		return backend(postgres.NewStore(ctx, cfg.PostgresDSN))
	case config.DriverRedis:
		return backend(redis.NewStore(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}))
	case config.DriverFS, config.DriverS3, config.DriverBlobMem:
		store, err := blob.Open(ctx, blobOptions(cfg))
		if err != nil {
			return nil, err
		}
		return blob.NewKeyValue(store, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// backend drops typed-nil stores so failed opens return a nil interface.
func backend[B Backend](b B, err error) (Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}

func blobOptions(cfg config.Storage) blob.Options {
	opts := blob.Options{FSRoot: cfg.FSRoot}
	switch cfg.Driver {
	case config.DriverS3:
		opts.Driver = blob.DriverS3
		opts.S3 = blob.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		}
	case config.DriverBlobMem:
		opts.Driver = blob.DriverMemory
	default:
		opts.Driver = blob.DriverFilesystem
	}
	return opts
}
