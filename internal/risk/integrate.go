package risk

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tidewater-labs/floodrisk/internal/curve"
)

// ErrInsufficientCurvePoints is returned when fewer than two distinct return
// periods are available for integration.
var ErrInsufficientCurvePoints = errors.New("insufficient curve points")

// TailRule names an extrapolation strategy for one tail of the damage curve.
type TailRule string

const (
	// TailHold continues the curve flat at the nearest known damage.
	TailHold TailRule = "hold"
	// TailZero assumes no damage beyond the known range.
	TailZero TailRule = "zero"
)

// TailPolicy configures both tails of the integration independently.
// Frequent covers exceedance frequencies above the highest computed point
// (return periods shorter than the shortest configured); Rare covers
// frequencies below the lowest computed point (return periods longer than
// the longest configured).
type TailPolicy struct {
	Frequent TailRule `yaml:"frequent" json:"frequent"`
	Rare     TailRule `yaml:"rare" json:"rare"`
}

// DefaultTailPolicy holds both tails flat: frequent events are assumed at
// least as damaging as the shortest computed return period, rare events at
// the damage of the longest.
func DefaultTailPolicy() TailPolicy {
	return TailPolicy{Frequent: TailHold, Rare: TailHold}
}

func (p TailPolicy) Validate() error {
	for _, r := range []TailRule{p.Frequent, p.Rare} {
		if r != TailHold && r != TailZero {
			return fmt.Errorf("unknown tail rule %q", r)
		}
	}
	return nil
}

// ExpectedAnnualDamage integrates a damage-vs-exceedance-frequency curve by
// the trapezoidal rule and returns the expected annual damage for one unit.
// Points may arrive in any order; they are integrated in order of decreasing
// frequency. The frequent tail extends to f=1 (annual certainty), the rare
// tail to f=0, each per the policy.
func ExpectedAnnualDamage(points []curve.Point, policy TailPolicy) (float64, error) {
	if err := policy.Validate(); err != nil {
		return 0, err
	}

	pts := make([]curve.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].Frequency > pts[j].Frequency })

	// Collapse duplicate frequencies; two damages at one frequency would
	// make the integrand ill-defined.
	distinct := pts[:0]
	for _, p := range pts {
		if n := len(distinct); n > 0 && distinct[n-1].Frequency == p.Frequency {
			continue
		}
		distinct = append(distinct, p)
	}
	if len(distinct) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 distinct return periods, got %d",
			ErrInsufficientCurvePoints, len(distinct))
	}

	ead := 0.0
	for i := 0; i < len(distinct)-1; i++ {
		df := distinct[i].Frequency - distinct[i+1].Frequency
		ead += df * (distinct[i].Value + distinct[i+1].Value) / 2
	}

	first := distinct[0]
	if policy.Frequent == TailHold && first.Frequency < 1 {
		ead += (1 - first.Frequency) * first.Value
	}

	last := distinct[len(distinct)-1]
	if policy.Rare == TailHold {
		ead += last.Frequency * last.Value
	}

	return ead, nil
}

// DamageCurveFromReturnPeriods converts a {return period: damage} map into
// curve points, as produced by the damage simulator at the site's configured
// return periods.
func DamageCurveFromReturnPeriods(damages map[float64]float64) ([]curve.Point, error) {
	pts := make([]curve.Point, 0, len(damages))
	for t, d := range damages {
		if t <= 0 {
			return nil, fmt.Errorf("return period must be positive, got %g", t)
		}
		pts = append(pts, curve.Point{Frequency: 1 / t, Value: d})
	}
	return pts, nil
}
