// Package blob re-exports the object store abstraction and wraps the infra
// backends. It also adapts any Store into a snapshot key-value backend.
package blob

import (
	"labtrack/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrNotFound is wrapped by Get/Head on missing keys.
	ErrNotFound = core.ErrNotFound
	// ErrExists is wrapped by create-only Put on existing keys.
	ErrExists = core.ErrExists
)
