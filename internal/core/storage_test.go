package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"labtrack/internal/blob"
	"labtrack/internal/config"
	"labtrack/pkg/domain"
)

func TestOpenKeyValueStoreDrivers(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		cfg  config.Storage
	}{
		{"memory", config.Storage{Driver: config.DriverMemory}},
		{"sqlite", config.Storage{Driver: config.DriverSQLite, SQLitePath: filepath.Join(dir, "state.db")}},
		{"default is sqlite", config.Storage{SQLitePath: filepath.Join(dir, "default.db")}},
		{"fs", config.Storage{Driver: config.DriverFS, FSRoot: filepath.Join(dir, "blobs"), Prefix: "snapshots"}},
		{"blobmem", config.Storage{Driver: config.DriverBlobMem}},
	}
	ctx := context.Background()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend, err := OpenKeyValueStore(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer backend.Close()
			if _, err := backend.Get(ctx, domain.DefaultParametersKey); !errors.Is(err, domain.ErrKeyNotFound) {
				t.Fatalf("expected key not found, got %v", err)
			}
			svc := NewService(backend, WithClock(domain.FixedClock(testNow)))
			if _, err := svc.Load(ctx); err != nil {
				t.Fatalf("load: %v", err)
			}
			if _, _, err := svc.AddMeasurement(ctx, "cholesterol", 4.2, testNow); err != nil {
				t.Fatalf("add: %v", err)
			}
			reloaded := NewService(backend, WithClock(domain.FixedClock(testNow)))
			report, err := reloaded.Load(ctx)
			if err != nil || report.SeededDefaults {
				t.Fatalf("reload: %+v %v", report, err)
			}
			if got := reloaded.Series("cholesterol"); len(got) != 1 || got[0].Value != 4.2 {
				t.Fatalf("unexpected series %+v", got)
			}
		})
	}
}

func TestOpenKeyValueStoreRejectsUnknownDriver(t *testing.T) {
	backend, err := OpenKeyValueStore(context.Background(), config.Storage{Driver: "floppy"})
	if err == nil || backend != nil {
		t.Fatalf("expected error and nil backend, got %v %v", backend, err)
	}
}

func TestBlobOptions(t *testing.T) {
	opts := blobOptions(config.Storage{Driver: config.DriverS3, S3: config.S3{Bucket: "labs", Region: "eu-west-1", PathStyle: true}})
	if opts.Driver != blob.DriverS3 || opts.S3.Bucket != "labs" || !opts.S3.PathStyle {
		t.Fatalf("unexpected s3 options %+v", opts)
	}
	if got := blobOptions(config.Storage{Driver: config.DriverFS}).Driver; got != blob.DriverFilesystem {
		t.Fatalf("expected filesystem driver, got %s", got)
	}
	if got := blobOptions(config.Storage{Driver: config.DriverBlobMem}).Driver; got != blob.DriverMemory {
		t.Fatalf("expected memory driver, got %s", got)
	}
}
