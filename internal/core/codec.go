package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"labtrack/pkg/domain"
)

// Blob is the encoded snapshot, one payload per logical key.
type Blob struct {
	Parameters []byte
	Series     []byte
}

// Codec converts Registry and MeasurementStore state to and from Blob. The
// layout matches the key-value format the mobile client wrote: a JSON array
// of parameters and a JSON object mapping parameter id to readings.
type Codec struct {
	ParametersKey string
	SeriesKey     string
	Clock         domain.Clock
	Locale        domain.Locale
}

// NewCodec returns a codec using the default keys.
func NewCodec(clock domain.Clock, locale domain.Locale) Codec {
	return Codec{
		ParametersKey: domain.DefaultParametersKey,
		SeriesKey:     domain.DefaultSeriesKey,
		Clock:         clock,
		Locale:        locale,
	}
}

type parameterRecord struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Unit        string      `json:"unit"`
	NormalRange rangeRecord `json:"normalRange"`
	Color       string      `json:"color"`
}

type rangeRecord struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type measurementRecord struct {
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
}

// Decoding uses pointer fields so missing members are distinguishable from zero values.
type parameterWire struct {
	ID          *string    `json:"id"`
	Name        *string    `json:"name"`
	Unit        *string    `json:"unit"`
	NormalRange *rangeWire `json:"normalRange"`
	Color       *string    `json:"color"`
}

type rangeWire struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type measurementWire struct {
	Date      *string  `json:"date"`
	Value     *float64 `json:"value"`
	Timestamp *float64 `json:"timestamp"`
}

// Serialize encodes the full parameter list and every series. Output is
// deterministic: parameters keep registry order and series keys are sorted.
func (c Codec) Serialize(registry *Registry, store *MeasurementStore) (Blob, error) {
	paramsJSON, err := c.EncodeParameters(registry)
	if err != nil {
		return Blob{}, err
	}
	params := registry.List()
	seriesRecords := make(map[string][]measurementRecord, len(params))
	for _, p := range params {
		series := store.Series(p.ID)
		records := make([]measurementRecord, 0, len(series))
		for _, m := range series {
			records = append(records, measurementRecord{
				Date:      m.DisplayDate,
				Value:     m.Value,
				Timestamp: m.Timestamp.UnixMilli(),
			})
		}
		seriesRecords[p.ID] = records
	}
	seriesJSON, err := json.Marshal(seriesRecords)
	if err != nil {
		return Blob{}, fmt.Errorf("encode series: %w", err)
	}
	return Blob{Parameters: paramsJSON, Series: seriesJSON}, nil
}

// EncodeParameters encodes only the parameter payload.
func (c Codec) EncodeParameters(registry *Registry) ([]byte, error) {
	params := registry.List()
	records := make([]parameterRecord, 0, len(params))
	for _, p := range params {
		records = append(records, parameterRecord{
			ID:          p.ID,
			Name:        p.Name,
			Unit:        p.Unit,
			NormalRange: rangeRecord{Min: p.NormalRange.Min, Max: p.NormalRange.Max},
			Color:       p.Color,
		})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode parameters: %w", err)
	}
	return data, nil
}

// Deserialize rebuilds registry and store from blob. Any structural or
// invariant problem is reported as *domain.CorruptSnapshotError.
func (c Codec) Deserialize(blob Blob) (*Registry, *MeasurementStore, error) {
	registry, err := c.DecodeParameters(blob.Parameters)
	if err != nil {
		return nil, nil, err
	}
	store, err := c.DecodeSeries(blob.Series, registry)
	if err != nil {
		return nil, nil, err
	}
	return registry, store, nil
}

// DecodeParameters parses the parameter payload.
func (c Codec) DecodeParameters(data []byte) (*Registry, error) {
	var wire *[]parameterWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, c.corrupt(c.ParametersKey, err)
	}
	if wire == nil {
		return nil, c.corrupt(c.ParametersKey, errors.New("expected an array of parameters"))
	}
	registry := NewRegistry()
	for i, w := range *wire {
		p, err := w.parameter()
		if err != nil {
			return nil, c.corrupt(c.ParametersKey, fmt.Errorf("parameter %d: %w", i, err))
		}
		if err := registry.Register(p); err != nil {
			return nil, c.corrupt(c.ParametersKey, fmt.Errorf("parameter %d: %w", i, err))
		}
	}
	return registry, nil
}

// DecodeSeries parses the series payload against registry. An empty payload
// yields empty series for every parameter.
func (c Codec) DecodeSeries(data []byte, registry *Registry) (*MeasurementStore, error) {
	store := NewMeasurementStore(registry, c.Clock, c.Locale)
	if len(data) == 0 {
		return store, nil
	}
	var wire *map[string][]measurementWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, c.corrupt(c.SeriesKey, err)
	}
	if wire == nil {
		return nil, c.corrupt(c.SeriesKey, errors.New("expected an object keyed by parameter id"))
	}
	ids := make([]string, 0, len(*wire))
	for id := range *wire {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !registry.Has(id) {
			return nil, c.corrupt(c.SeriesKey, domain.UnknownParameterError{ID: id})
		}
		entries := (*wire)[id]
		readings := make([]domain.Measurement, 0, len(entries))
		for i, w := range entries {
			m, err := w.measurement(id, c.Locale)
			if err != nil {
				return nil, c.corrupt(c.SeriesKey, fmt.Errorf("%s[%d]: %w", id, i, err))
			}
			readings = append(readings, m)
		}
		store.restore(id, readings)
	}
	return store, nil
}

func (c Codec) corrupt(key string, err error) error {
	return &domain.CorruptSnapshotError{Key: key, Err: err}
}

func (w parameterWire) parameter() (domain.Parameter, error) {
	switch {
	case w.ID == nil:
		return domain.Parameter{}, errors.New("missing id")
	case w.Name == nil:
		return domain.Parameter{}, errors.New("missing name")
	case w.Unit == nil:
		return domain.Parameter{}, errors.New("missing unit")
	case w.NormalRange == nil || w.NormalRange.Min == nil || w.NormalRange.Max == nil:
		return domain.Parameter{}, errors.New("missing normalRange")
	}
	p := domain.Parameter{
		ID:          *w.ID,
		Name:        *w.Name,
		Unit:        *w.Unit,
		NormalRange: domain.NormalRange{Min: *w.NormalRange.Min, Max: *w.NormalRange.Max},
	}
	if w.Color != nil {
		p.Color = *w.Color
	}
	return p, nil
}

func (w measurementWire) measurement(parameterID string, locale domain.Locale) (domain.Measurement, error) {
	if w.Value == nil {
		return domain.Measurement{}, errors.New("missing value")
	}
	if w.Timestamp == nil {
		return domain.Measurement{}, errors.New("missing timestamp")
	}
	value := *w.Value
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return domain.Measurement{}, fmt.Errorf("value %v must be positive", value)
	}
	ms := *w.Timestamp
	if ms != math.Trunc(ms) || math.Abs(ms) > float64(math.MaxInt64>>10) {
		return domain.Measurement{}, fmt.Errorf("timestamp %v is not a whole millisecond", ms)
	}
	ts := time.UnixMilli(int64(ms)).UTC()
	m := domain.Measurement{ParameterID: parameterID, Value: value, Timestamp: ts}
	if w.Date != nil && *w.Date != "" {
		m.DisplayDate = *w.Date
	} else {
		m.DisplayDate = domain.FormatDisplayDate(ts, locale)
	}
	return m, nil
}
