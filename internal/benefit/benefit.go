package benefit

import (
	"fmt"
	"math"
)

// CostSchedule is the optional cost side of a benefit analysis: a one-off
// implementation cost in the current year plus a recurring annual
// maintenance cost.
type CostSchedule struct {
	Implementation    float64 `json:"implementation"`
	AnnualMaintenance float64 `json:"annual_maintenance"`
}

// Inputs carries the four scenario risks and the analysis horizon. The four
// risk values are expected annual damages: with/without the strategy at
// current and future conditions.
type Inputs struct {
	RiskBaseNow        float64 `json:"risk_base_now"`
	RiskStrategyNow    float64 `json:"risk_strategy_now"`
	RiskBaseFuture     float64 `json:"risk_base_future"`
	RiskStrategyFuture float64 `json:"risk_strategy_future"`

	CurrentYear  int     `json:"current_year"`
	FutureYear   int     `json:"future_year"`
	DiscountRate float64 `json:"discount_rate"`

	Costs *CostSchedule `json:"costs,omitempty"`
}

// YearEntry is one year of the absolute and discounted benefit/cost series.
type YearEntry struct {
	Year               int     `json:"year"`
	Benefit            float64 `json:"benefit"`
	DiscountedBenefit  float64 `json:"discounted_benefit"`
	Cost               float64 `json:"cost"`
	DiscountedCost     float64 `json:"discounted_cost"`
	Profit             float64 `json:"profit"`
	DiscountedProfit   float64 `json:"discounted_profit"`
}

// Result is the outcome of a benefit analysis. The cost metrics are nil when
// no cost schedule was provided. IRR is nil additionally when the internal
// rate of return is undefined for the cash flows (see ComputeIRR errors).
type Result struct {
	BenefitNow    float64     `json:"benefit_now"`
	BenefitFuture float64     `json:"benefit_future"`
	Years         []YearEntry `json:"years"`
	TotalBenefits float64     `json:"total_benefits"`

	TotalCosts *float64 `json:"total_costs,omitempty"`
	BCR        *float64 `json:"bcr,omitempty"`
	NPV        *float64 `json:"npv,omitempty"`
	IRR        *float64 `json:"irr,omitempty"`
	IRRError   string   `json:"irr_error,omitempty"`
}

// Compute derives the benefit time series from the four scenario risks and
// discounts it. The annual benefit is linearly interpolated between the risk
// reduction at current conditions (year 0) and at future conditions (year N),
// then each year is discounted at the given rate. With a cost schedule the
// discounted cost series, BCR, NPV and IRR are produced as well.
// Deterministic; identical inputs yield identical results.
func Compute(in Inputs, irrCfg IRRConfig) (*Result, error) {
	if in.FutureYear < in.CurrentYear {
		return nil, fmt.Errorf("future year %d before current year %d", in.FutureYear, in.CurrentYear)
	}
	if in.DiscountRate < 0 || in.DiscountRate >= 1 {
		return nil, fmt.Errorf("discount rate must be in [0, 1), got %g", in.DiscountRate)
	}

	benefitNow := in.RiskBaseNow - in.RiskStrategyNow
	benefitFuture := in.RiskBaseFuture - in.RiskStrategyFuture
	horizon := in.FutureYear - in.CurrentYear

	res := &Result{
		BenefitNow:    benefitNow,
		BenefitFuture: benefitFuture,
		Years:         make([]YearEntry, 0, horizon+1),
	}

	for t := 0; t <= horizon; t++ {
		b := benefitNow
		if horizon > 0 {
			b += (benefitFuture - benefitNow) * float64(t) / float64(horizon)
		}
		discount := math.Pow(1+in.DiscountRate, float64(t))

		entry := YearEntry{
			Year:              in.CurrentYear + t,
			Benefit:           b,
			DiscountedBenefit: b / discount,
		}
		if in.Costs != nil {
			entry.Cost = in.Costs.AnnualMaintenance
			if t == 0 {
				entry.Cost += in.Costs.Implementation
			}
			entry.DiscountedCost = entry.Cost / discount
		}
		entry.Profit = entry.Benefit - entry.Cost
		entry.DiscountedProfit = entry.Profit / discount

		res.TotalBenefits += entry.DiscountedBenefit
		res.Years = append(res.Years, entry)
	}

	if in.Costs == nil {
		return res, nil
	}

	var totalCosts, npv float64
	profits := make([]float64, len(res.Years))
	for i, y := range res.Years {
		totalCosts += y.DiscountedCost
		npv += y.DiscountedProfit
		profits[i] = y.Profit
	}
	res.TotalCosts = &totalCosts
	res.NPV = &npv
	if totalCosts != 0 {
		bcr := res.TotalBenefits / totalCosts
		res.BCR = &bcr
	}

	irr, err := ComputeIRR(profits, irrCfg)
	if err != nil {
		// IRR being undefined does not invalidate the rest of the analysis;
		// the reason is carried on the result.
		res.IRRError = err.Error()
		return res, nil
	}
	res.IRR = &irr
	return res, nil
}
