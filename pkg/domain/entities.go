// Package domain defines the lab tracking entities, their invariants, and the
// pure classification helpers shared by the core service and its backends.
package domain

import (
	"math"
	"time"
)

// EntityType identifies the domain entity affected by a change.
type EntityType string

// Entity type constants enumerate the tracked entities.
const (
	EntityParameter   EntityType = "parameter"
	EntityMeasurement EntityType = "measurement"
)

// NormalRange is the inclusive [Min, Max] interval considered healthy.
type NormalRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Validate checks min >= 0, max > min and that both bounds are finite.
func (r NormalRange) Validate() error {
	if !isFinite(r.Min) || r.Min < 0 {
		return &ValidationError{Field: "min", Message: "minimum must be a number greater than or equal to zero"}
	}
	if !isFinite(r.Max) || r.Max <= r.Min {
		return &ValidationError{Field: "max", Message: "maximum must be greater than the minimum"}
	}
	return nil
}

// Contains reports whether value lies inside the inclusive range.
func (r NormalRange) Contains(value float64) bool {
	return value >= r.Min && value <= r.Max
}

// Parameter describes one trackable lab metric.
type Parameter struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Unit        string      `json:"unit"`
	NormalRange NormalRange `json:"normalRange"`
	Color       string      `json:"color"`
}

// Validate enforces the parameter invariants, including a non-empty id.
func (p Parameter) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Message: "parameter id is required"}
	}
	return ParameterDraft{
		Name:  p.Name,
		Unit:  p.Unit,
		Min:   p.NormalRange.Min,
		Max:   p.NormalRange.Max,
		Color: p.Color,
	}.Validate()
}

// ParameterDraft carries user input for a parameter that has no id yet.
type ParameterDraft struct {
	Name  string  `validate:"required"`
	Unit  string  `validate:"required"`
	Min   float64 `validate:"gte=0"`
	Max   float64 `validate:"gtfield=Min"`
	Color string
}

// Measurement is one recorded value for a parameter at a point in time.
type Measurement struct {
	ParameterID string
	Value       float64
	Timestamp   time.Time
	// DisplayDate caches FormatDisplayDate(Timestamp, locale).
	DisplayDate string
}

// Status is the outcome of classifying a value against a normal range.
type Status string

// Classification outcomes.
const (
	StatusInRange    Status = "in_range"
	StatusOutOfRange Status = "out_of_range"
)

// Label returns the short badge text shown next to a reading.
func (s Status) Label() string {
	if s == StatusInRange {
		return "normal"
	}
	return "attention"
}

// Domain is the numeric [Low, High] interval used for chart axes.
type Domain struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Change records a mutation applied within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	After  any
}

// Action describes what happened to an entity. Parameters and measurements
// are append-only, so create is the only action.
type Action string

// ActionCreate indicates an entity was created.
const ActionCreate Action = "create"

// Severity determines commit behavior for rule violations.
type Severity string

// Rule evaluation severities.
const (
	// SeverityBlock aborts the transaction.
	SeverityBlock Severity = "block"
	// SeverityWarn is reported but allows commit.
	SeverityWarn Severity = "warn"
	// SeverityLog is informational only.
	SeverityLog Severity = "log"
)

// Violation captures a single rule finding.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates rule violations produced by a transaction.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if any violation blocks commit.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
