package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Scenario is one stored flood scenario: a strategy run against a projection
// with the probabilistic event set. Its risk results are owned by the
// scenario and recomputed only when the scenario is rerun.
type Scenario struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"` // canonical, unique
	Strategy       string    `json:"strategy"`
	Projection     string    `json:"projection"`
	ProjectionYear int       `json:"projection_year"`
	EventSet       string    `json:"event_set"`

	// State
	Run   bool       `json:"run"`
	RunAt *time.Time `json:"run_at,omitempty"`

	// Per-unit expected annual damage, filled after the scenario is run
	// and integrated.
	RiskResults map[string]float64 `json:"risk_results,omitempty"`
	TotalEAD    *float64           `json:"total_ead,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ScenarioFilter struct {
	Strategy   string
	Projection string
	Run        *bool
	Limit      int
	Offset     int
}

// BenefitAnalysis is a stored benefit-analysis specification plus, once
// computed, its result. The four scenario name columns are filled with the
// canonical names derived from the strategy/projection/year fields when the
// analysis is created, so the
// store can invalidate results when a prerequisite scenario is rerun.
type BenefitAnalysis struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"` // unique

	Strategy          string  `json:"strategy"`
	BaselineStrategy  string  `json:"baseline_strategy"`
	CurrentProjection string  `json:"current_projection"`
	CurrentYear       int     `json:"current_year"`
	FutureProjection  string  `json:"future_projection"`
	FutureYear        int     `json:"future_year"`
	DiscountRate      float64 `json:"discount_rate"`

	// Optional cost schedule
	ImplementationCost *float64 `json:"implementation_cost,omitempty"`
	AnnualMaintenance  *float64 `json:"annual_maintenance,omitempty"`

	// Canonical names of the four prerequisite scenarios
	BaselineCurrentScenario string `json:"baseline_current_scenario"`
	StrategyCurrentScenario string `json:"strategy_current_scenario"`
	BaselineFutureScenario  string `json:"baseline_future_scenario"`
	StrategyFutureScenario  string `json:"strategy_future_scenario"`

	Result     map[string]interface{} `json:"result,omitempty"`
	ComputedAt *time.Time             `json:"computed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *BenefitAnalysis) RequiredScenarioNames() []string {
	return []string{
		a.BaselineCurrentScenario,
		a.StrategyCurrentScenario,
		a.BaselineFutureScenario,
		a.StrategyFutureScenario,
	}
}

type BenefitAnalysisFilter struct {
	Strategy string
	Limit    int
	Offset   int
}

type StoreStats struct {
	TotalScenarios   int `json:"total_scenarios"`
	RunScenarios     int `json:"run_scenarios"`
	TotalAnalyses    int `json:"total_analyses"`
	ComputedAnalyses int `json:"computed_analyses"`
}

type Store interface {
	// CreateScenario inserts the scenario if no scenario with its canonical
	// name exists. It reports whether a row was inserted; an existing name
	// is a no-op, not an error.
	CreateScenario(ctx context.Context, s *Scenario) (bool, error)
	GetScenario(ctx context.Context, id uuid.UUID) (*Scenario, error)
	GetScenarioByName(ctx context.Context, name string) (*Scenario, error)
	ListScenarios(ctx context.Context, filter ScenarioFilter) ([]*Scenario, error)

	// MarkScenarioRun flags the scenario as run and clears the stored result
	// of every benefit analysis that depends on it, since those results are
	// invalidated by new risk numbers.
	MarkScenarioRun(ctx context.Context, name string, runAt time.Time) error
	SaveRiskResults(ctx context.Context, name string, results map[string]float64, totalEAD float64) error

	CreateBenefitAnalysis(ctx context.Context, a *BenefitAnalysis) error
	GetBenefitAnalysisByName(ctx context.Context, name string) (*BenefitAnalysis, error)
	ListBenefitAnalyses(ctx context.Context, filter BenefitAnalysisFilter) ([]*BenefitAnalysis, error)
	SaveBenefitResult(ctx context.Context, name string, result map[string]interface{}, computedAt time.Time) error

	// ListPendingBenefitAnalyses returns analyses without a stored result,
	// the engine's work queue.
	ListPendingBenefitAnalyses(ctx context.Context) ([]*BenefitAnalysis, error)

	GetStats(ctx context.Context) (*StoreStats, error)

	Close() error
}
