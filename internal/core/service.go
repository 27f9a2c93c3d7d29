package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"labtrack/pkg/domain"

	"golang.org/x/sync/errgroup"
)

// Keys names the two logical keys the snapshot is persisted under.
type Keys struct {
	Parameters string
	Series     string
}

// DefaultKeys returns the storage keys used by the mobile client.
func DefaultKeys() Keys {
	return Keys{Parameters: domain.DefaultParametersKey, Series: domain.DefaultSeriesKey}
}

// Service exposes the parameter registry and measurement store to the
// presentation layer and persists the full snapshot after every successful
// mutation.
type Service struct {
	mu       sync.RWMutex
	kv       domain.KeyValueStore
	registry *Registry
	store    *MeasurementStore
	engine   *domain.RulesEngine
	logger   Logger
	metrics  MetricsRecorder
	clock    domain.Clock
	locale   domain.Locale
	keys     Keys
	defaults []domain.Parameter
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder sets the metrics recorder; nil keeps the no-op recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the time source.
func WithClock(c domain.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocale selects the display date locale.
func WithLocale(l domain.Locale) Option {
	return func(s *Service) {
		if l != "" {
			s.locale = l
		}
	}
}

// WithKeys overrides the storage keys. Empty fields keep their defaults.
func WithKeys(k Keys) Option {
	return func(s *Service) {
		if k.Parameters != "" {
			s.keys.Parameters = k.Parameters
		}
		if k.Series != "" {
			s.keys.Series = k.Series
		}
	}
}

// WithRulesEngine replaces the rules evaluated on every mutation.
func WithRulesEngine(e *domain.RulesEngine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithDefaults replaces the parameters seeded on first run.
func WithDefaults(params []domain.Parameter) Option {
	return func(s *Service) {
		s.defaults = append([]domain.Parameter(nil), params...)
	}
}

// NewService constructs a service persisting to kv. The service starts with
// an empty registry; call Load to hydrate it.
func NewService(kv domain.KeyValueStore, opts ...Option) *Service {
	s := &Service{
		kv:       kv,
		engine:   domain.NewDefaultRulesEngine(),
		logger:   noopLogger{},
		metrics:  noopMetricsRecorder{},
		clock:    domain.SystemClock,
		locale:   domain.DefaultLocale,
		keys:     DefaultKeys(),
		defaults: domain.BuiltinParameters(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = NewRegistry()
	s.store = NewMeasurementStore(s.registry, s.clock, s.locale)
	return s
}

func (s *Service) codec() Codec {
	return Codec{
		ParametersKey: s.keys.Parameters,
		SeriesKey:     s.keys.Series,
		Clock:         s.clock,
		Locale:        s.locale,
	}
}

// LoadReport describes how the persisted snapshot was hydrated.
type LoadReport struct {
	// SeededDefaults is set when no parameter snapshot existed.
	SeededDefaults bool
	// Corrupt lists unreadable payloads that were replaced by defaults.
	Corrupt []*domain.CorruptSnapshotError
}

// Err joins the corruption errors, or returns nil.
func (r LoadReport) Err() error {
	errs := make([]error, 0, len(r.Corrupt))
	for _, c := range r.Corrupt {
		errs = append(errs, c)
	}
	return errors.Join(errs...)
}

// Load reads both snapshot keys and replaces the in-memory state. A missing
// parameter snapshot seeds the defaults and persists them. Corrupt payloads
// fall back to defaults (parameters) or empty series and are reported, not
// returned as errors. Backend failures are returned.
func (s *Service) Load(ctx context.Context) (report LoadReport, err error) {
	defer s.observe(ctx, "load", time.Now(), &err)

	var paramsData, seriesData []byte
	var paramsMissing, seriesMissing bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var gerr error
		paramsData, paramsMissing, gerr = s.fetch(gctx, s.keys.Parameters)
		return gerr
	})
	g.Go(func() error {
		var gerr error
		seriesData, seriesMissing, gerr = s.fetch(gctx, s.keys.Series)
		return gerr
	})
	if err = g.Wait(); err != nil {
		return report, err
	}

	codec := s.codec()
	var registry *Registry
	if paramsMissing {
		report.SeededDefaults = true
	} else {
		registry, err = codec.DecodeParameters(paramsData)
		if err != nil {
			if !s.recordCorruption(&report, err) {
				return report, err
			}
			registry = nil
		}
	}
	if registry == nil {
		registry, err = NewRegistryWith(s.defaults)
		if err != nil {
			return report, fmt.Errorf("seed default parameters: %w", err)
		}
	}

	var store *MeasurementStore
	if !seriesMissing {
		store, err = codec.DecodeSeries(seriesData, registry)
		if err != nil {
			if !s.recordCorruption(&report, err) {
				return report, err
			}
			store = nil
		}
	}
	if store == nil {
		store = NewMeasurementStore(registry, s.clock, s.locale)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if report.SeededDefaults {
		if err = s.persist(ctx, registry, store, nil); err != nil {
			return report, err
		}
	}
	s.registry, s.store = registry, store
	s.logger.Info("snapshot loaded",
		"parameters", registry.Len(),
		"seeded_defaults", report.SeededDefaults,
		"corrupt_payloads", len(report.Corrupt))
	return report, nil
}

func (s *Service) fetch(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, false, nil
}

func (s *Service) recordCorruption(report *LoadReport, err error) bool {
	var corrupt *domain.CorruptSnapshotError
	if !errors.As(err, &corrupt) {
		return false
	}
	s.logger.Error("corrupt snapshot, falling back to defaults", "key", corrupt.Key, "error", corrupt.Err)
	report.Corrupt = append(report.Corrupt, corrupt)
	return true
}

// transaction is a cloned registry and store that mutations are applied to
// before being persisted and swapped in.
type transaction struct {
	registry *Registry
	store    *MeasurementStore
	changes  []domain.Change
}

func (tx *transaction) ListParameters() []domain.Parameter { return tx.registry.List() }

func (tx *transaction) FindParameter(id string) (domain.Parameter, bool) {
	p, err := tx.registry.Get(id)
	return p, err == nil
}

func (tx *transaction) Series(parameterID string) []domain.Measurement {
	return tx.store.Series(parameterID)
}

func (tx *transaction) record(entity domain.EntityType, after any) {
	tx.changes = append(tx.changes, domain.Change{Entity: entity, Action: domain.ActionCreate, After: after})
}

// runInTransaction applies fn to a copy of the state, evaluates rules,
// persists the resulting snapshot and only then makes it visible.
func (s *Service) runInTransaction(ctx context.Context, fn func(tx *transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry := s.registry.clone()
	tx := &transaction{registry: registry, store: s.store.cloneWith(registry)}
	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, tx, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	previous, err := s.codec().EncodeParameters(s.registry)
	if err != nil {
		return domain.Result{}, err
	}
	if err := s.persist(ctx, tx.registry, tx.store, previous); err != nil {
		return domain.Result{}, err
	}
	s.registry, s.store = tx.registry, tx.store
	for _, v := range result.Violations {
		s.logger.Warn("rule violation", "rule", v.Rule, "severity", v.Severity, "entity", v.Entity, "id", v.EntityID, "message", v.Message)
	}
	return result, nil
}

// persist rewrites both keys with the encoded snapshot. When the series write
// fails after the parameters were written, previous (if non-nil) is written
// back so the stored pair stays consistent. Callers hold s.mu.
func (s *Service) persist(ctx context.Context, registry *Registry, store *MeasurementStore, previous []byte) error {
	blob, err := s.codec().Serialize(registry, store)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.keys.Parameters, blob.Parameters); err != nil {
		return fmt.Errorf("write %s: %w", s.keys.Parameters, err)
	}
	if err := s.kv.Set(ctx, s.keys.Series, blob.Series); err != nil {
		err = fmt.Errorf("write %s: %w", s.keys.Series, err)
		if previous == nil {
			return err
		}
		if restoreErr := s.kv.Set(ctx, s.keys.Parameters, previous); restoreErr != nil {
			s.logger.Error("parameters left ahead of series", "key", s.keys.Parameters, "error", restoreErr)
			return errors.Join(err, fmt.Errorf("restore %s: %w", s.keys.Parameters, restoreErr))
		}
		return err
	}
	s.logger.Debug("snapshot persisted", "parameters_bytes", len(blob.Parameters), "series_bytes", len(blob.Series))
	return nil
}

func (s *Service) observe(ctx context.Context, op string, started time.Time, errp *error) {
	success := errp == nil || *errp == nil
	s.metrics.Observe(ctx, op, success, time.Since(started))
	if !success {
		s.logger.Debug("operation failed", "operation", op, "error", *errp)
	}
}

// AddParameter validates draft, registers it with a fresh id and creates its
// empty series in the same transaction.
func (s *Service) AddParameter(ctx context.Context, draft domain.ParameterDraft) (created domain.Parameter, res domain.Result, err error) {
	defer s.observe(ctx, "add_parameter", time.Now(), &err)
	res, err = s.runInTransaction(ctx, func(tx *transaction) error {
		var addErr error
		created, addErr = tx.registry.Add(draft)
		if addErr != nil {
			return addErr
		}
		tx.store.EnsureSeries(created.ID)
		tx.record(domain.EntityParameter, created)
		return nil
	})
	if err != nil {
		return domain.Parameter{}, res, err
	}
	s.logger.Info("parameter added", "id", created.ID, "name", created.Name)
	return created, res, nil
}

// AddMeasurement records a reading for parameterID.
func (s *Service) AddMeasurement(ctx context.Context, parameterID string, value float64, timestamp time.Time) (created domain.Measurement, res domain.Result, err error) {
	defer s.observe(ctx, "add_measurement", time.Now(), &err)
	res, err = s.runInTransaction(ctx, func(tx *transaction) error {
		var insErr error
		created, insErr = tx.store.Insert(parameterID, value, timestamp)
		if insErr != nil {
			return insErr
		}
		tx.record(domain.EntityMeasurement, created)
		return nil
	})
	if err != nil {
		return domain.Measurement{}, res, err
	}
	s.logger.Info("measurement recorded", "parameter", parameterID, "value", value, "timestamp", created.Timestamp)
	return created, res, nil
}

// ListParameters returns every parameter in insertion order.
func (s *Service) ListParameters() []domain.Parameter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.List()
}

// GetParameter looks up a parameter by id.
func (s *Service) GetParameter(id string) (domain.Parameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Get(id)
}

// Series returns the full chronological series for parameterID.
func (s *Service) Series(parameterID string) []domain.Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Series(parameterID)
}

// Windowed returns the readings inside window.
func (s *Service) Windowed(parameterID string, window domain.Window) ([]domain.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Windowed(parameterID, window)
}

// Latest returns the n most recent readings, oldest first.
func (s *Service) Latest(parameterID string, n int) ([]domain.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Latest(parameterID, n)
}

// Classify is domain.Classify, exposed on the service surface.
func (s *Service) Classify(value float64, r domain.NormalRange) domain.Status {
	return domain.Classify(value, r)
}

// ChartDomain is domain.ChartDomain with the default padding factor.
func (s *Service) ChartDomain(series []domain.Measurement, r domain.NormalRange) domain.Domain {
	return domain.ChartDomain(series, r, domain.DefaultPaddingFactor)
}

// Reading pairs a measurement with its classification.
type Reading struct {
	domain.Measurement
	Status domain.Status
}

// ChartView is everything needed to draw one parameter's chart.
type ChartView struct {
	Parameter domain.Parameter
	Window    domain.Window
	Points    []Reading
	Domain    domain.Domain
}

// Chart builds the chart view for parameterID over window. The domain covers
// the windowed points and the normal range.
func (s *Service) Chart(parameterID string, window domain.Window) (ChartView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	param, err := s.registry.Get(parameterID)
	if err != nil {
		return ChartView{}, err
	}
	series, err := s.store.Windowed(parameterID, window)
	if err != nil {
		return ChartView{}, err
	}
	return ChartView{
		Parameter: param,
		Window:    window,
		Points:    classifyAll(series, param.NormalRange),
		Domain:    domain.ChartDomain(series, param.NormalRange, domain.DefaultPaddingFactor),
	}, nil
}

// RecentResults returns the n most recent readings, newest first.
func (s *Service) RecentResults(parameterID string, n int) ([]Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	param, err := s.registry.Get(parameterID)
	if err != nil {
		return nil, err
	}
	latest, err := s.store.Latest(parameterID, n)
	if err != nil {
		return nil, err
	}
	readings := classifyAll(latest, param.NormalRange)
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}

// ClassifyValue classifies a value against parameterID's range without
// recording it.
func (s *Service) ClassifyValue(parameterID string, value float64) (domain.Status, error) {
	param, err := s.GetParameter(parameterID)
	if err != nil {
		return "", err
	}
	return domain.Classify(value, param.NormalRange), nil
}

func classifyAll(series []domain.Measurement, r domain.NormalRange) []Reading {
	out := make([]Reading, 0, len(series))
	for _, m := range series {
		out = append(out, Reading{Measurement: m, Status: domain.Classify(m.Value, r)})
	}
	return out
}
