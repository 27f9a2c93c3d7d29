package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"labtrack/internal/infra/persistence/memory"
	"labtrack/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPrometheusRecorderCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	svc := newLoadedService(t, memory.NewStore(), WithMetricsRecorder(rec))
	ctx := context.Background()
	if _, _, err := svc.AddMeasurement(ctx, "esr", 7, testNow); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := svc.AddMeasurement(ctx, "esr", -1, testNow); err == nil {
		t.Fatalf("expected validation error")
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues("add_measurement", "success")); got != 1 {
		t.Fatalf("success count = %v", got)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues("add_measurement", "error")); got != 1 {
		t.Fatalf("error count = %v", got)
	}
	if n := testutil.CollectAndCount(rec.durations); n != 2 {
		t.Fatalf("expected load and add_measurement histograms, got %d", n)
	}

	again, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	again.Observe(ctx, "add_measurement", true, time.Millisecond)
	if got := testutil.ToFloat64(rec.results.WithLabelValues("add_measurement", "success")); got != 2 {
		t.Fatalf("collectors not shared after re-register: %v", got)
	}
}

func TestPrometheusRecorderRejectsConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "labtrack", Subsystem: "service", Name: "operations_total", Help: "conflict",
	}))
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected registration conflict")
	}
}

func TestZapLoggerRecordsServiceEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := context.Background()
	kv := memory.NewStore()
	_ = kv.Set(ctx, domain.DefaultParametersKey, []byte("[{]"))
	svc := NewService(kv, WithClock(domain.FixedClock(testNow)), WithLogger(NewZapLogger(zap.New(core))))
	if _, err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	corrupt := logs.FilterMessage("corrupt snapshot, falling back to defaults").All()
	if len(corrupt) != 1 || corrupt[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected one error entry, got %+v", corrupt)
	}
	if key := corrupt[0].ContextMap()["key"]; key != domain.DefaultParametersKey {
		t.Fatalf("unexpected key field %v", key)
	}

	if _, _, err := svc.AddMeasurement(ctx, "glucose", 9.9, testNow); err != nil {
		t.Fatalf("add: %v", err)
	}
	warns := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("rule violation").All()
	if len(warns) != 1 || warns[0].ContextMap()["rule"] != "normal_range" {
		t.Fatalf("expected normal_range warning, got %+v", warns)
	}
	if logs.FilterMessage("measurement recorded").Len() != 1 {
		t.Fatalf("expected info entry for recorded measurement")
	}
}

func TestNoopDefaults(t *testing.T) {
	if _, ok := NewZapLogger(nil).(noopLogger); !ok {
		t.Fatalf("nil zap logger should yield noop")
	}
	svc := NewService(memory.NewStore(), WithLogger(nil), WithMetricsRecorder(nil))
	if _, ok := svc.logger.(noopLogger); !ok {
		t.Fatalf("expected noop logger")
	}
	if _, ok := svc.metrics.(noopMetricsRecorder); !ok {
		t.Fatalf("expected noop metrics recorder")
	}
	failed := errors.New("boom")
	svc.observe(context.Background(), "noop", time.Now(), &failed)
}
