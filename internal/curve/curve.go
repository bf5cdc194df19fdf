package curve

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidEventSet is returned when a frequency curve cannot be built
// because the event set is empty or contains a non-positive frequency.
var ErrInvalidEventSet = errors.New("invalid event set")

// EventRecord is one simulated event's contribution for a single spatial or
// asset unit: the event's annual occurrence frequency (already adjusted by
// any projection multiplier) and the simulated value at that unit.
type EventRecord struct {
	EventID   string  `json:"event_id"`
	Frequency float64 `json:"frequency"`
	Value     float64 `json:"value"`
}

// Point is one (exceedance frequency, value) pair on a frequency curve.
type Point struct {
	Frequency float64 `json:"frequency"`
	Value     float64 `json:"value"`
}

// Curve is a value-vs-exceedance-frequency curve for one unit. Points are
// ordered by increasing value, so exceedance frequency is non-increasing.
type Curve struct {
	Points []Point `json:"points"`
}

// Build constructs the exceedance curve for one unit from event records.
// Records are sorted by value ascending; each point's exceedance frequency is
// the record's own occurrence frequency plus the frequencies of all events
// with a strictly greater value. Records sharing a value are merged into one
// point by summing their frequencies.
func Build(records []EventRecord) (Curve, error) {
	if len(records) == 0 {
		return Curve{}, fmt.Errorf("%w: no events", ErrInvalidEventSet)
	}
	for _, r := range records {
		if r.Frequency <= 0 {
			return Curve{}, fmt.Errorf("%w: event %q has frequency %g", ErrInvalidEventSet, r.EventID, r.Frequency)
		}
	}

	sorted := make([]EventRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	// Merge ties before accumulating so a shared value yields one point.
	merged := sorted[:0]
	for _, r := range sorted {
		if n := len(merged); n > 0 && merged[n-1].Value == r.Value {
			merged[n-1].Frequency += r.Frequency
			continue
		}
		merged = append(merged, r)
	}

	points := make([]Point, len(merged))
	cumulative := 0.0
	for i := len(merged) - 1; i >= 0; i-- {
		cumulative += merged[i].Frequency
		points[i] = Point{Frequency: cumulative, Value: merged[i].Value}
	}

	return Curve{Points: points}, nil
}

// MinFrequency returns the lowest exceedance frequency on the curve (the
// rarest, highest-value point).
func (c Curve) MinFrequency() float64 {
	return c.Points[len(c.Points)-1].Frequency
}

// MaxFrequency returns the highest exceedance frequency on the curve (the
// most frequent, lowest-value point).
func (c Curve) MaxFrequency() float64 {
	return c.Points[0].Frequency
}
