package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedAggregationLevel is returned when equity weighting is
// requested at an aggregation level for which no income data exists.
var ErrUnsupportedAggregationLevel = errors.New("unsupported aggregation level")

// AggregationUnit is one unit at the aggregation level carrying the income
// attribute: its raw risk or benefit value plus the census-style income and
// population figures the weight is derived from.
type AggregationUnit struct {
	Name            string  `json:"name"`
	Value           float64 `json:"value"`
	IncomePerCapita float64 `json:"income_per_capita"`
	Population      float64 `json:"population"`
}

// WeightedValue is the equity-weighted result for one aggregation unit.
type WeightedValue struct {
	Name     string  `json:"name"`
	Raw      float64 `json:"raw"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Weighter rescales aggregated risk/benefit values by relative income.
// Units below the population-weighted mean income get weights above 1,
// units above it below 1; weights are normalized so the population-weighted
// mean weight is exactly 1. Stateless apart from its configuration.
type Weighter struct {
	elasticity      float64
	supportedLevels map[string]bool
}

// NewWeighter creates a Weighter. supportedLevels lists the aggregation
// levels for which the site configuration carries an income attribute.
func NewWeighter(supportedLevels []string, elasticity float64) *Weighter {
	levels := make(map[string]bool, len(supportedLevels))
	for _, l := range supportedLevels {
		levels[l] = true
	}
	return &Weighter{elasticity: elasticity, supportedLevels: levels}
}

// Apply computes equity-weighted values for every unit at the given level.
func (w *Weighter) Apply(level string, units []AggregationUnit) ([]WeightedValue, error) {
	if !w.supportedLevels[level] {
		return nil, fmt.Errorf("%w: no income data at level %q", ErrUnsupportedAggregationLevel, level)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: no units at level %q", ErrUnsupportedAggregationLevel, level)
	}

	var totalPop, totalIncome float64
	for _, u := range units {
		if u.IncomePerCapita <= 0 || u.Population <= 0 {
			return nil, fmt.Errorf("%w: unit %q missing income or population", ErrUnsupportedAggregationLevel, u.Name)
		}
		totalPop += u.Population
		totalIncome += u.Population * u.IncomePerCapita
	}
	meanIncome := totalIncome / totalPop

	// Raw weights relative to the mean, then renormalize so the
	// population-weighted mean weight is 1.
	raw := make([]float64, len(units))
	var weightedPop float64
	for i, u := range units {
		raw[i] = math.Pow(u.IncomePerCapita/meanIncome, -w.elasticity)
		weightedPop += u.Population * raw[i]
	}
	norm := weightedPop / totalPop

	out := make([]WeightedValue, len(units))
	for i, u := range units {
		weight := raw[i] / norm
		out[i] = WeightedValue{
			Name:     u.Name,
			Raw:      u.Value,
			Weight:   weight,
			Weighted: u.Value * weight,
		}
	}
	return out, nil
}
