package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tidewater-labs/floodrisk/internal/benefit"
	"github.com/tidewater-labs/floodrisk/internal/curve"
	"github.com/tidewater-labs/floodrisk/internal/events"
	"github.com/tidewater-labs/floodrisk/internal/risk"
	"github.com/tidewater-labs/floodrisk/internal/scenario"
	"github.com/tidewater-labs/floodrisk/internal/simdata"
	"github.com/tidewater-labs/floodrisk/internal/store"
)

// Options carries the site and policy configuration the engine computes
// under.
type Options struct {
	ReturnPeriods []float64
	Interpolation curve.Interpolation
	TailPolicy    risk.TailPolicy
	IRR           benefit.IRRConfig
	SweepInterval time.Duration
}

// Engine completes analytics work in the background: it integrates risk for
// scenarios that have been run, and computes benefit analyses once all four
// prerequisite scenarios are ready. Everything it does is idempotent; a
// result already stored is never recomputed unless invalidated.
type Engine struct {
	store    store.Store
	sim      simdata.Client
	events   events.Client
	resolver *scenario.Resolver
	opts     Options
	logger   *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, sim simdata.Client, ev events.Client, r *scenario.Resolver, opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		store:    s,
		sim:      sim,
		events:   ev,
		resolver: r,
		opts:     opts,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(1)
	go e.sweepLoop(ctx)
}

func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.wg.Wait()
}

func (e *Engine) sweepLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Sweep(ctx)
		}
	}
}

// Sweep runs one pass of both stages. Exported so callers can force a pass
// after mutating state instead of waiting for the next tick.
func (e *Engine) Sweep(ctx context.Context) {
	e.integrateRunScenarios(ctx)
	e.computeReadyAnalyses(ctx)
}

func (e *Engine) integrateRunScenarios(ctx context.Context) {
	run := true
	scenarios, err := e.store.ListScenarios(ctx, store.ScenarioFilter{Run: &run})
	if err != nil {
		e.logger.Error("failed to list run scenarios", "error", err)
		return
	}

	for _, sc := range scenarios {
		if sc.TotalEAD != nil {
			continue
		}
		if err := e.integrateScenario(ctx, sc); err != nil {
			e.logger.Warn("failed to integrate scenario", "scenario", sc.Name, "error", err)
		}
	}
}

func (e *Engine) integrateScenario(ctx context.Context, sc *store.Scenario) error {
	outputs, err := e.sim.EventSetOutputs(ctx, sc.Name)
	if err != nil {
		return err
	}

	results := make(map[string]float64, len(outputs))
	var total float64
	for unit, records := range outputs {
		c, err := curve.Build(records)
		if err != nil {
			return err
		}
		// Restrict the damage curve to the site's configured return periods
		// before integrating.
		damages, err := c.ReturnPeriodMap(e.opts.ReturnPeriods, e.opts.Interpolation)
		if err != nil {
			return err
		}
		points, err := risk.DamageCurveFromReturnPeriods(damages)
		if err != nil {
			return err
		}
		ead, err := risk.ExpectedAnnualDamage(points, e.opts.TailPolicy)
		if err != nil {
			return err
		}
		results[unit] = ead
		total += ead
	}

	if err := e.store.SaveRiskResults(ctx, sc.Name, results, total); err != nil {
		return err
	}
	e.logger.Info("integrated scenario risk", "scenario", sc.Name, "units", len(results), "total_ead", total)
	e.publish(events.SubjectScenarioIntegrated(sc.Name), map[string]interface{}{
		"scenario":  sc.Name,
		"units":     len(results),
		"total_ead": total,
	})
	return nil
}

func (e *Engine) computeReadyAnalyses(ctx context.Context) {
	pending, err := e.store.ListPendingBenefitAnalyses(ctx)
	if err != nil {
		e.logger.Error("failed to list pending analyses", "error", err)
		return
	}

	for _, a := range pending {
		if err := e.ComputeAnalysis(ctx, a); err != nil {
			var pe *scenario.PrerequisitesError
			if errors.As(err, &pe) {
				e.logger.Debug("analysis blocked on prerequisites", "analysis", a.Name, "error", err)
				continue
			}
			e.logger.Warn("failed to compute analysis", "analysis", a.Name, "error", err)
		}
	}
}

// ComputeAnalysis resolves the four risk inputs, computes the benefit
// analysis and stores the result. It returns a scenario.PrerequisitesError
// when the analysis is not ready yet.
func (e *Engine) ComputeAnalysis(ctx context.Context, a *store.BenefitAnalysis) error {
	risks, err := e.resolver.RiskInputs(ctx, a)
	if err != nil {
		return err
	}

	in := benefit.Inputs{
		RiskBaseNow:        risks[scenario.RoleKey{Strategy: scenario.RoleBaseline, Time: scenario.TimeCurrent}],
		RiskStrategyNow:    risks[scenario.RoleKey{Strategy: scenario.RoleStrategy, Time: scenario.TimeCurrent}],
		RiskBaseFuture:     risks[scenario.RoleKey{Strategy: scenario.RoleBaseline, Time: scenario.TimeFuture}],
		RiskStrategyFuture: risks[scenario.RoleKey{Strategy: scenario.RoleStrategy, Time: scenario.TimeFuture}],
		CurrentYear:        a.CurrentYear,
		FutureYear:         a.FutureYear,
		DiscountRate:       a.DiscountRate,
	}
	if a.ImplementationCost != nil || a.AnnualMaintenance != nil {
		costs := &benefit.CostSchedule{}
		if a.ImplementationCost != nil {
			costs.Implementation = *a.ImplementationCost
		}
		if a.AnnualMaintenance != nil {
			costs.AnnualMaintenance = *a.AnnualMaintenance
		}
		in.Costs = costs
	}

	result, err := benefit.Compute(in, e.opts.IRR)
	if err != nil {
		return err
	}

	resultMap, err := toMap(result)
	if err != nil {
		return err
	}
	if err := e.store.SaveBenefitResult(ctx, a.Name, resultMap, time.Now()); err != nil {
		return err
	}
	e.logger.Info("computed benefit analysis",
		"analysis", a.Name,
		"total_benefits", result.TotalBenefits,
	)
	e.publish(events.SubjectAnalysisCompleted(a.Name), map[string]interface{}{
		"analysis":       a.Name,
		"total_benefits": result.TotalBenefits,
	})
	return nil
}

func (e *Engine) publish(subject string, data interface{}) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(subject, data); err != nil {
		e.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
