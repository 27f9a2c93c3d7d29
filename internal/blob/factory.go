package blob

import (
	"context"
	"fmt"
)

// Options selects and configures a blob backend.
type Options struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open constructs the backend named by opts.Driver (fs when empty).
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
