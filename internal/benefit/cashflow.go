package benefit

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoConvergence is returned when no sign change exists in the
	// configured rate range, so bisection cannot bracket a root.
	ErrNoConvergence = errors.New("irr did not converge")
	// ErrDegenerateCashflow is returned when the cash flows are all zero or
	// all one sign, leaving the internal rate of return undefined.
	ErrDegenerateCashflow = errors.New("degenerate cash flow")
)

// IRRConfig bounds the root search. Termination is guaranteed by the
// iteration cap, never by wall-clock time.
type IRRConfig struct {
	MinRate       float64 `yaml:"min_rate" json:"min_rate"`
	MaxRate       float64 `yaml:"max_rate" json:"max_rate"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
}

// DefaultIRRConfig covers rates from -50% to +1000%, wide enough for any
// plausible adaptation investment.
func DefaultIRRConfig() IRRConfig {
	return IRRConfig{
		MinRate:       -0.5,
		MaxRate:       10.0,
		MaxIterations: 200,
		Tolerance:     1e-7,
	}
}

func (c IRRConfig) Validate() error {
	if c.MinRate <= -1 {
		return fmt.Errorf("min rate must be greater than -1, got %g", c.MinRate)
	}
	if c.MaxRate <= c.MinRate {
		return fmt.Errorf("max rate %g must exceed min rate %g", c.MaxRate, c.MinRate)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", c.Tolerance)
	}
	return nil
}

// npvAtRate discounts the cash flows at the given rate; cashflows[t] is the
// net flow t years from now.
func npvAtRate(cashflows []float64, rate float64) float64 {
	var npv float64
	for t, cf := range cashflows {
		npv += cf / math.Pow(1+rate, float64(t))
	}
	return npv
}

// ComputeIRR finds the rate at which the net cash flows discount to zero,
// by bisection over the configured rate range.
func ComputeIRR(cashflows []float64, cfg IRRConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	hasPositive, hasNegative := false, false
	for _, cf := range cashflows {
		if cf > 0 {
			hasPositive = true
		}
		if cf < 0 {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return 0, fmt.Errorf("%w: flows must change sign for irr to exist", ErrDegenerateCashflow)
	}

	lo, hi := cfg.MinRate, cfg.MaxRate
	fLo, fHi := npvAtRate(cashflows, lo), npvAtRate(cashflows, hi)
	if fLo == 0 {
		return lo, nil
	}
	if fHi == 0 {
		return hi, nil
	}
	if fLo*fHi > 0 {
		return 0, fmt.Errorf("%w: no sign change in [%g, %g]", ErrNoConvergence, lo, hi)
	}

	for i := 0; i < cfg.MaxIterations; i++ {
		mid := (lo + hi) / 2
		fMid := npvAtRate(cashflows, mid)
		if math.Abs(fMid) < cfg.Tolerance || (hi-lo)/2 < cfg.Tolerance {
			return mid, nil
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return (lo + hi) / 2, nil
}
