package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"labtrack/internal/blob"
	"labtrack/internal/config"
	"labtrack/internal/core"
	"labtrack/internal/infra/persistence/postgres"
	pgtestutil "labtrack/internal/infra/persistence/postgres/testutil"
	"labtrack/pkg/domain"
)

var smokeNow = time.Date(2025, time.February, 10, 8, 0, 0, 0, time.UTC)

// TestIntegrationSmoke runs a load, write and reload cycle against every
// in-process backend.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()
	variants := []struct {
		name string
		open func(t *testing.T) domain.KeyValueStore
	}{
		{
			name: "memory",
			open: func(t *testing.T) domain.KeyValueStore {
				return openConfigured(t, config.Storage{Driver: config.DriverMemory})
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) domain.KeyValueStore {
				return openConfigured(t, config.Storage{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "labtrack.db")})
			},
		},
		{
			name: "postgres-stub",
			open: func(t *testing.T) domain.KeyValueStore {
				db, _ := pgtestutil.NewStubDB()
				restore := postgres.OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
				t.Cleanup(restore)
				return openConfigured(t, config.Storage{Driver: config.DriverPostgres})
			},
		},
		{
			name: "blob-memory",
			open: func(_ *testing.T) domain.KeyValueStore { return blob.NewKeyValue(blob.NewMemory(), "") },
		},
		{
			name: "blob-filesystem",
			open: func(t *testing.T) domain.KeyValueStore {
				store, err := blob.NewFilesystem(t.TempDir())
				if err != nil {
					t.Fatalf("new filesystem blob: %v", err)
				}
				return blob.NewKeyValue(store, "labtrack/")
			},
		},
		{
			name: "blob-mock-s3",
			open: func(_ *testing.T) domain.KeyValueStore {
				return blob.NewKeyValue(blob.NewMockS3ForTests(), "labtrack/")
			},
		},
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			kv := v.open(t)
			svc := newService(t, kv)
			param, _, err := svc.AddParameter(ctx, domain.ParameterDraft{Name: "Ferritin", Unit: "ng/mL", Min: 15, Max: 150})
			if err != nil {
				t.Fatalf("add parameter: %v", err)
			}
			if _, _, err := svc.AddMeasurement(ctx, param.ID, 80, smokeNow.AddDate(0, -1, 0)); err != nil {
				t.Fatalf("add measurement: %v", err)
			}
			if _, _, err := svc.AddMeasurement(ctx, "hemoglobin", 150, smokeNow); err != nil {
				t.Fatalf("add measurement: %v", err)
			}

			reloaded := newService(t, kv)
			if got := len(reloaded.ListParameters()); got != 8 {
				t.Fatalf("expected 8 parameters after reload, got %d", got)
			}
			view, err := reloaded.Chart(param.ID, domain.WindowLast6Months)
			if err != nil {
				t.Fatalf("chart: %v", err)
			}
			if len(view.Points) != 1 || view.Points[0].Value != 80 || view.Points[0].Status != domain.StatusInRange {
				t.Fatalf("unexpected chart points %+v", view.Points)
			}
			recent, err := reloaded.RecentResults("hemoglobin", 3)
			if err != nil || len(recent) != 1 || recent[0].Value != 150 {
				t.Fatalf("unexpected recent results %+v %v", recent, err)
			}
		})
	}
}

// TestConfigFileSelectsBackend drives backend selection from a YAML file.
func TestConfigFileSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labtrack.yaml")
	doc := "storage:\n  driver: fs\n  fs_root: " + filepath.Join(dir, "blobs") + "\n  prefix: snapshots/\nlocale: ru\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	backend, err := core.OpenKeyValueStore(ctx, cfg.Storage)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	svc := core.NewService(backend, core.WithClock(domain.FixedClock(smokeNow)), core.WithLocale(cfg.LocaleTag()))
	if _, err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	m, _, err := svc.AddMeasurement(ctx, "glucose", 4.6, smokeNow)
	if err != nil {
		t.Fatalf("add measurement: %v", err)
	}
	if m.DisplayDate != "февр. 25 г." {
		t.Fatalf("expected russian display date, got %q", m.DisplayDate)
	}
	if _, err := os.Stat(filepath.Join(dir, "blobs", "snapshots", domain.DefaultSeriesKey)); err != nil {
		t.Fatalf("expected series object on disk: %v", err)
	}
}

func openConfigured(t *testing.T, cfg config.Storage) domain.KeyValueStore {
	t.Helper()
	backend, err := core.OpenKeyValueStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open %s: %v", cfg.Driver, err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func newService(t *testing.T, kv domain.KeyValueStore) *core.Service {
	t.Helper()
	svc := core.NewService(kv, core.WithClock(domain.FixedClock(smokeNow)))
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return svc
}
