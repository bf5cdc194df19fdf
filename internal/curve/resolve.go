package curve

import (
	"fmt"
	"math"
)

// Interpolation selects how values between two curve points are computed.
type Interpolation string

const (
	// InterpLogLinear interpolates linearly in log-frequency space. This is
	// the default throughout the service.
	InterpLogLinear Interpolation = "log"
	// InterpLinear interpolates linearly in frequency space.
	InterpLinear Interpolation = "linear"
)

// ValueAtFrequency returns the curve value at the given exceedance frequency.
// Outside the known range the nearest point's value is held flat: frequencies
// above the most frequent point return that point's value, frequencies below
// the rarest point return the rarest point's value. Zero damage is never
// assumed for frequent events.
func (c Curve) ValueAtFrequency(f float64, mode Interpolation) float64 {
	pts := c.Points
	if f >= pts[0].Frequency {
		return pts[0].Value
	}
	if f <= pts[len(pts)-1].Frequency {
		return pts[len(pts)-1].Value
	}

	// Frequencies decrease along the slice; find the bracketing pair.
	for i := 0; i < len(pts)-1; i++ {
		hi, lo := pts[i], pts[i+1]
		if f <= hi.Frequency && f >= lo.Frequency {
			if hi.Frequency == lo.Frequency {
				return hi.Value
			}
			var t float64
			if mode == InterpLinear {
				t = (hi.Frequency - f) / (hi.Frequency - lo.Frequency)
			} else {
				t = (math.Log(hi.Frequency) - math.Log(f)) /
					(math.Log(hi.Frequency) - math.Log(lo.Frequency))
			}
			return hi.Value + t*(lo.Value-hi.Value)
		}
	}
	return pts[len(pts)-1].Value
}

// ValueAtReturnPeriod returns the curve value at return period T years,
// i.e. at exceedance frequency 1/T.
func (c Curve) ValueAtReturnPeriod(t float64, mode Interpolation) (float64, error) {
	if t <= 0 {
		return 0, fmt.Errorf("return period must be positive, got %g", t)
	}
	return c.ValueAtFrequency(1/t, mode), nil
}

// ReturnPeriodMap resolves the curve at every configured return period.
func (c Curve) ReturnPeriodMap(returnPeriods []float64, mode Interpolation) (map[float64]float64, error) {
	out := make(map[float64]float64, len(returnPeriods))
	for _, t := range returnPeriods {
		v, err := c.ValueAtReturnPeriod(t, mode)
		if err != nil {
			return nil, err
		}
		out[t] = v
	}
	return out, nil
}

// BuildReturnPeriodMaps builds a curve per unit from its event records and
// resolves each at the configured return periods. This is the bulk entry
// point used when turning a whole event set's simulator output into
// return-period maps.
func BuildReturnPeriodMaps(outputs map[string][]EventRecord, returnPeriods []float64, mode Interpolation) (map[string]map[float64]float64, error) {
	result := make(map[string]map[float64]float64, len(outputs))
	for unit, records := range outputs {
		c, err := Build(records)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", unit, err)
		}
		m, err := c.ReturnPeriodMap(returnPeriods, mode)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", unit, err)
		}
		result[unit] = m
	}
	return result, nil
}
