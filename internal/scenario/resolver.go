package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tidewater-labs/floodrisk/internal/store"
)

// State of a benefit analysis's prerequisite check.
type State string

const (
	StateUnchecked State = "unchecked"
	StateChecked   State = "checked"
	StateSatisfied State = "satisfied"
	StatePartial   State = "partial"
)

// Requirement is one row of the requirement table: a prerequisite scenario
// key with its store status.
type Requirement struct {
	Key    Key  `json:"key"`
	Exists bool `json:"exists"`
	Run    bool `json:"run"`
}

// CheckResult is the outcome of checking the four prerequisites.
type CheckResult struct {
	State        State         `json:"state"`
	Requirements []Requirement `json:"requirements"`
}

// Ready reports whether all four scenarios exist and have been run.
func (c *CheckResult) Ready() bool {
	return c.State == StateSatisfied
}

// PrerequisitesError describes which of the four scenarios block a benefit
// computation. Missing scenarios do not exist at all; unrun ones exist but
// have not been executed.
type PrerequisitesError struct {
	Missing []string
	Unrun   []string
}

func (e *PrerequisitesError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing scenarios: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unrun) > 0 {
		parts = append(parts, "unrun scenarios: "+strings.Join(e.Unrun, ", "))
	}
	return "prerequisites not met: " + strings.Join(parts, "; ")
}

// Err returns a PrerequisitesError naming every unmet scenario, or nil when
// the analysis is ready to compute.
func (c *CheckResult) Err() error {
	if c.Ready() {
		return nil
	}
	e := &PrerequisitesError{}
	for _, r := range c.Requirements {
		switch {
		case !r.Exists:
			e.Missing = append(e.Missing, r.Key.Name)
		case !r.Run:
			e.Unrun = append(e.Unrun, r.Key.Name)
		}
	}
	return e
}

// Resolver checks and materializes the four scenarios a benefit analysis
// depends on. Materialization is guarded per canonical name so concurrent
// analyses sharing a prerequisite create it at most once; the store's
// create-if-absent covers races with other processes.
type Resolver struct {
	store  store.Store
	logger *slog.Logger

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

func NewResolver(s store.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:    s,
		logger:   logger,
		keyLocks: make(map[string]*sync.Mutex),
	}
}

func (r *Resolver) lockFor(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.keyLocks[name]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.keyLocks[name] = l
	return l
}

// Check derives the four required scenario keys and queries the store for
// each one's existence and run status.
func (r *Resolver) Check(ctx context.Context, a *store.BenefitAnalysis) (*CheckResult, error) {
	result := &CheckResult{State: StateChecked}

	satisfied := true
	for _, key := range RequiredScenarios(a) {
		sc, err := r.store.GetScenarioByName(ctx, key.Name)
		if err != nil {
			return nil, fmt.Errorf("check scenario %q: %w", key.Name, err)
		}
		req := Requirement{Key: key, Exists: sc != nil, Run: sc != nil && sc.Run}
		if !req.Exists || !req.Run {
			satisfied = false
		}
		result.Requirements = append(result.Requirements, req)
	}

	if satisfied {
		result.State = StateSatisfied
	} else {
		result.State = StatePartial
	}
	return result, nil
}

// MaterializeMissing creates every prerequisite scenario that does not exist
// yet and returns the canonical names it created. Scenarios are created, not
// run; running is the execution collaborator's job. Calling it again is a
// no-op for everything already present.
func (r *Resolver) MaterializeMissing(ctx context.Context, a *store.BenefitAnalysis) ([]string, error) {
	var created []string
	for _, key := range RequiredScenarios(a) {
		lock := r.lockFor(key.Name)
		lock.Lock()

		inserted, err := r.store.CreateScenario(ctx, &store.Scenario{
			Name:           key.Name,
			Strategy:       key.Strategy,
			Projection:     key.Projection,
			ProjectionYear: key.Year,
			EventSet:       EventSetProbabilistic,
		})
		lock.Unlock()
		if err != nil {
			return created, fmt.Errorf("materialize scenario %q: %w", key.Name, err)
		}
		if inserted {
			r.logger.Info("materialized scenario",
				"name", key.Name,
				"strategy", key.Strategy,
				"projection", key.Projection,
				"year", key.Year,
			)
			created = append(created, key.Name)
		}
	}
	return created, nil
}

// RiskInputs fetches the four total expected annual damages for a ready
// analysis, keyed by role. It fails with a PrerequisitesError when any
// scenario is missing or unrun, or a plain error when a run scenario has no
// integrated risk result yet.
func (r *Resolver) RiskInputs(ctx context.Context, a *store.BenefitAnalysis) (map[RoleKey]float64, error) {
	check, err := r.Check(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := check.Err(); err != nil {
		return nil, err
	}

	out := make(map[RoleKey]float64, 4)
	for _, req := range check.Requirements {
		sc, err := r.store.GetScenarioByName(ctx, req.Key.Name)
		if err != nil {
			return nil, err
		}
		if sc.TotalEAD == nil {
			return nil, fmt.Errorf("scenario %q has been run but has no risk result", req.Key.Name)
		}
		out[req.Key.Role] = *sc.TotalEAD
	}
	return out, nil
}
