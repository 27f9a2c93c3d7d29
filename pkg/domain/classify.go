package domain

const (
	// DefaultPaddingFactor is the share of the value span added above and below a chart domain.
	DefaultPaddingFactor = 0.2
	// DegeneratePadding is the absolute padding used when the value span is zero.
	DegeneratePadding = 0.1
)

// Classify reports whether value lies within r, inclusive on both ends.
// NaN is always out of range.
func Classify(value float64, r NormalRange) Status {
	if r.Contains(value) {
		return StatusInRange
	}
	return StatusOutOfRange
}

// ChartDomain computes the padded axis interval covering every value in
// series together with the normal range. A non-finite or negative
// paddingFactor falls back to DefaultPaddingFactor.
func ChartDomain(series []Measurement, r NormalRange, paddingFactor float64) Domain {
	if !isFinite(paddingFactor) || paddingFactor < 0 {
		paddingFactor = DefaultPaddingFactor
	}
	low, high := r.Min, r.Max
	for _, m := range series {
		if !isFinite(m.Value) {
			continue
		}
		if m.Value < low {
			low = m.Value
		}
		if m.Value > high {
			high = m.Value
		}
	}
	padding := (high - low) * paddingFactor
	if high == low {
		padding = DegeneratePadding
	}
	d := Domain{Low: low - padding, High: high + padding}
	if !isFinite(d.Low) || !isFinite(d.High) {
		return Domain{Low: low, High: high}
	}
	return d
}
