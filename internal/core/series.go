package core

import (
	"math"
	"sort"
	"time"

	"labtrack/pkg/domain"
)

// MeasurementStore owns one chronologically ordered series per parameter id.
// Series are non-decreasing by timestamp; equal timestamps keep insertion
// order. It is not safe for concurrent mutation; Service serializes access.
type MeasurementStore struct {
	registry *Registry
	clock    domain.Clock
	locale   domain.Locale
	series   map[string][]domain.Measurement
}

// NewMeasurementStore returns an empty store validating parameter ids
// against registry. A nil clock uses domain.SystemClock.
func NewMeasurementStore(registry *Registry, clock domain.Clock, locale domain.Locale) *MeasurementStore {
	if clock == nil {
		clock = domain.SystemClock
	}
	if locale == "" {
		locale = domain.DefaultLocale
	}
	if registry == nil {
		registry = NewRegistry()
	}
	s := &MeasurementStore{
		registry: registry,
		clock:    clock,
		locale:   locale,
		series:   make(map[string][]domain.Measurement),
	}
	for _, id := range registry.order {
		s.EnsureSeries(id)
	}
	return s
}

// EnsureSeries creates an empty series for parameterID if none exists.
func (s *MeasurementStore) EnsureSeries(parameterID string) {
	if _, ok := s.series[parameterID]; !ok {
		s.series[parameterID] = []domain.Measurement{}
	}
}

// ParameterIDs returns the ids that own a series, in registry order.
func (s *MeasurementStore) ParameterIDs() []string {
	out := make([]string, 0, len(s.series))
	for _, id := range s.registry.order {
		if _, ok := s.series[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Series returns a copy of the series for parameterID. Unknown ids and
// parameters without readings yield an empty slice.
func (s *MeasurementStore) Series(parameterID string) []domain.Measurement {
	return append([]domain.Measurement{}, s.series[parameterID]...)
}

// Insert records a reading and restores chronological order. The series is
// left untouched when validation fails.
func (s *MeasurementStore) Insert(parameterID string, value float64, timestamp time.Time) (domain.Measurement, error) {
	if !s.registry.Has(parameterID) {
		return domain.Measurement{}, domain.UnknownParameterError{ID: parameterID}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return domain.Measurement{}, &domain.ValidationError{Field: "value", Message: "enter a valid value greater than zero"}
	}
	if timestamp.IsZero() {
		return domain.Measurement{}, &domain.ValidationError{Field: "timestamp", Message: "choose a date"}
	}
	if timestamp.After(s.clock.Now()) {
		return domain.Measurement{}, &domain.ValidationError{Field: "timestamp", Message: "date cannot be in the future"}
	}
	ts := domain.NormalizeTimestamp(timestamp)
	m := domain.Measurement{
		ParameterID: parameterID,
		Value:       value,
		Timestamp:   ts,
		DisplayDate: domain.FormatDisplayDate(ts, s.locale),
	}
	s.insertSorted(m)
	return m, nil
}

// insertSorted places m after every entry with a timestamp <= m.Timestamp,
// which keeps ties in insertion order.
func (s *MeasurementStore) insertSorted(m domain.Measurement) {
	series := s.series[m.ParameterID]
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Timestamp.After(m.Timestamp)
	})
	series = append(series, domain.Measurement{})
	copy(series[idx+1:], series[idx:])
	series[idx] = m
	s.series[m.ParameterID] = series
}

// Windowed returns the readings of parameterID inside window, oldest first.
func (s *MeasurementStore) Windowed(parameterID string, window domain.Window) ([]domain.Measurement, error) {
	if !s.registry.Has(parameterID) {
		return nil, domain.UnknownParameterError{ID: parameterID}
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	return window.Filter(s.series[parameterID], s.clock.Now()), nil
}

// Latest returns the n most recent readings in chronological order.
func (s *MeasurementStore) Latest(parameterID string, n int) ([]domain.Measurement, error) {
	if !s.registry.Has(parameterID) {
		return nil, domain.UnknownParameterError{ID: parameterID}
	}
	series := s.series[parameterID]
	if n <= 0 {
		return []domain.Measurement{}, nil
	}
	if n > len(series) {
		n = len(series)
	}
	return append([]domain.Measurement{}, series[len(series)-n:]...), nil
}

// restore replaces the series of parameterID with already validated
// readings, re-establishing order with a stable sort.
func (s *MeasurementStore) restore(parameterID string, readings []domain.Measurement) {
	sorted := append([]domain.Measurement{}, readings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	s.series[parameterID] = sorted
}

func (s *MeasurementStore) cloneWith(registry *Registry) *MeasurementStore {
	cp := &MeasurementStore{
		registry: registry,
		clock:    s.clock,
		locale:   s.locale,
		series:   make(map[string][]domain.Measurement, len(s.series)),
	}
	for k, v := range s.series {
		cp.series[k] = append([]domain.Measurement{}, v...)
	}
	return cp
}
