package scenario

import (
	"fmt"
	"strings"

	"github.com/tidewater-labs/floodrisk/internal/store"
)

// StrategyRole tags which side of the comparison a scenario belongs to.
type StrategyRole string

const (
	RoleBaseline StrategyRole = "baseline"
	RoleStrategy StrategyRole = "strategy"
)

// TimeRole tags which situation a scenario models.
type TimeRole string

const (
	TimeCurrent TimeRole = "current"
	TimeFuture  TimeRole = "future"
)

// RoleKey identifies one of the four prerequisite slots of a benefit
// analysis.
type RoleKey struct {
	Strategy StrategyRole `json:"strategy_role"`
	Time     TimeRole     `json:"time_role"`
}

// roleOrder fixes the presentation order of the four slots.
var roleOrder = []RoleKey{
	{RoleBaseline, TimeCurrent},
	{RoleStrategy, TimeCurrent},
	{RoleBaseline, TimeFuture},
	{RoleStrategy, TimeFuture},
}

// Key is the identity of one required scenario: its role plus the concrete
// strategy/projection/year it is built from. The event set is implicit — a
// benefit analysis always uses the probabilistic event set, never a single
// event.
type Key struct {
	Role       RoleKey `json:"role"`
	Strategy   string  `json:"strategy"`
	Projection string  `json:"projection"`
	Year       int     `json:"year"`
	Name       string  `json:"name"`
}

// EventSetProbabilistic is the event set every benefit-analysis scenario
// runs against.
const EventSetProbabilistic = "probabilistic"

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// CanonicalName builds the deterministic scenario name for a
// strategy/projection/year combination. Repeated materialization of the same
// combination always targets the same name.
func CanonicalName(strategy, projection string, year int) string {
	return fmt.Sprintf("%s_%s_%d", slug(strategy), slug(projection), year)
}

// RequiredScenarios derives the four prerequisite scenario keys from a
// benefit analysis, in fixed order: baseline/current, strategy/current,
// baseline/future, strategy/future.
func RequiredScenarios(a *store.BenefitAnalysis) []Key {
	table := map[RoleKey]Key{
		{RoleBaseline, TimeCurrent}: {
			Strategy:   a.BaselineStrategy,
			Projection: a.CurrentProjection,
			Year:       a.CurrentYear,
		},
		{RoleStrategy, TimeCurrent}: {
			Strategy:   a.Strategy,
			Projection: a.CurrentProjection,
			Year:       a.CurrentYear,
		},
		{RoleBaseline, TimeFuture}: {
			Strategy:   a.BaselineStrategy,
			Projection: a.FutureProjection,
			Year:       a.FutureYear,
		},
		{RoleStrategy, TimeFuture}: {
			Strategy:   a.Strategy,
			Projection: a.FutureProjection,
			Year:       a.FutureYear,
		},
	}

	keys := make([]Key, 0, len(roleOrder))
	for _, role := range roleOrder {
		k := table[role]
		k.Role = role
		k.Name = CanonicalName(k.Strategy, k.Projection, k.Year)
		keys = append(keys, k)
	}
	return keys
}

// ApplyScenarioNames fills the analysis's four scenario-name columns from
// its strategy/projection/year fields. Called once when the analysis is
// created.
func ApplyScenarioNames(a *store.BenefitAnalysis) {
	keys := RequiredScenarios(a)
	a.BaselineCurrentScenario = keys[0].Name
	a.StrategyCurrentScenario = keys[1].Name
	a.BaselineFutureScenario = keys[2].Name
	a.StrategyFutureScenario = keys[3].Name
}
