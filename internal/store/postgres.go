package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const scenarioColumns = `id, name, strategy, projection, projection_year, event_set,
	run, run_at, risk_results, total_ead, created_at, updated_at`

func (s *PostgresStore) CreateScenario(ctx context.Context, sc *Scenario) (bool, error) {
	resultsJSON, _ := json.Marshal(sc.RiskResults)

	// Unique canonical name makes creation atomic create-if-absent: a
	// concurrent duplicate resolves to zero inserted rows, not an error.
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO flood_scenarios (id, name, strategy, projection, projection_year, event_set, run, risk_results)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO NOTHING`,
		uuid.New(), sc.Name, sc.Strategy, sc.Projection, sc.ProjectionYear, sc.EventSet, sc.Run, resultsJSON,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	created, err := s.GetScenarioByName(ctx, sc.Name)
	if err != nil {
		return true, err
	}
	*sc = *created
	return true, nil
}

func (s *PostgresStore) scanScenario(row pgx.Row) (*Scenario, error) {
	sc := &Scenario{}
	var resultsJSON []byte
	err := row.Scan(
		&sc.ID, &sc.Name, &sc.Strategy, &sc.Projection, &sc.ProjectionYear, &sc.EventSet,
		&sc.Run, &sc.RunAt, &resultsJSON, &sc.TotalEAD, &sc.CreatedAt, &sc.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resultsJSON != nil {
		_ = json.Unmarshal(resultsJSON, &sc.RiskResults)
	}
	return sc, nil
}

func (s *PostgresStore) GetScenario(ctx context.Context, id uuid.UUID) (*Scenario, error) {
	return s.scanScenario(s.pool.QueryRow(ctx, `
		SELECT `+scenarioColumns+` FROM flood_scenarios WHERE id = $1`, id))
}

func (s *PostgresStore) GetScenarioByName(ctx context.Context, name string) (*Scenario, error) {
	return s.scanScenario(s.pool.QueryRow(ctx, `
		SELECT `+scenarioColumns+` FROM flood_scenarios WHERE name = $1`, name))
}

func (s *PostgresStore) ListScenarios(ctx context.Context, filter ScenarioFilter) ([]*Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM flood_scenarios WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Strategy != "" {
		n++
		query += fmt.Sprintf(" AND strategy = $%d", n)
		args = append(args, filter.Strategy)
	}
	if filter.Projection != "" {
		n++
		query += fmt.Sprintf(" AND projection = $%d", n)
		args = append(args, filter.Projection)
	}
	if filter.Run != nil {
		n++
		query += fmt.Sprintf(" AND run = $%d", n)
		args = append(args, *filter.Run)
	}
	query += " ORDER BY created_at"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Scenario
	for rows.Next() {
		sc, err := s.scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkScenarioRun(ctx context.Context, name string, runAt time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE flood_scenarios SET run = true, run_at = $2, updated_at = now()
		WHERE name = $1`, name, runAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scenario %q not found", name)
	}

	// Fresh risk numbers invalidate every analysis built on this scenario.
	_, err = tx.Exec(ctx, `
		UPDATE benefit_analyses SET result = NULL, computed_at = NULL, updated_at = now()
		WHERE $1 IN (baseline_current_scenario, strategy_current_scenario,
			baseline_future_scenario, strategy_future_scenario)`, name)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) SaveRiskResults(ctx context.Context, name string, results map[string]float64, totalEAD float64) error {
	resultsJSON, _ := json.Marshal(results)
	tag, err := s.pool.Exec(ctx, `
		UPDATE flood_scenarios SET risk_results = $2, total_ead = $3, updated_at = now()
		WHERE name = $1`, name, resultsJSON, totalEAD)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scenario %q not found", name)
	}
	return nil
}

const analysisColumns = `id, name, strategy, baseline_strategy,
	current_projection, current_year, future_projection, future_year,
	discount_rate, implementation_cost, annual_maintenance,
	baseline_current_scenario, strategy_current_scenario,
	baseline_future_scenario, strategy_future_scenario,
	result, computed_at, created_at, updated_at`

func (s *PostgresStore) CreateBenefitAnalysis(ctx context.Context, a *BenefitAnalysis) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO benefit_analyses (name, strategy, baseline_strategy,
			current_projection, current_year, future_projection, future_year,
			discount_rate, implementation_cost, annual_maintenance,
			baseline_current_scenario, strategy_current_scenario,
			baseline_future_scenario, strategy_future_scenario)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		a.Name, a.Strategy, a.BaselineStrategy,
		a.CurrentProjection, a.CurrentYear, a.FutureProjection, a.FutureYear,
		a.DiscountRate, a.ImplementationCost, a.AnnualMaintenance,
		a.BaselineCurrentScenario, a.StrategyCurrentScenario,
		a.BaselineFutureScenario, a.StrategyFutureScenario,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (s *PostgresStore) scanAnalysis(row pgx.Row) (*BenefitAnalysis, error) {
	a := &BenefitAnalysis{}
	var resultJSON []byte
	err := row.Scan(
		&a.ID, &a.Name, &a.Strategy, &a.BaselineStrategy,
		&a.CurrentProjection, &a.CurrentYear, &a.FutureProjection, &a.FutureYear,
		&a.DiscountRate, &a.ImplementationCost, &a.AnnualMaintenance,
		&a.BaselineCurrentScenario, &a.StrategyCurrentScenario,
		&a.BaselineFutureScenario, &a.StrategyFutureScenario,
		&resultJSON, &a.ComputedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resultJSON != nil {
		_ = json.Unmarshal(resultJSON, &a.Result)
	}
	return a, nil
}

func (s *PostgresStore) GetBenefitAnalysisByName(ctx context.Context, name string) (*BenefitAnalysis, error) {
	return s.scanAnalysis(s.pool.QueryRow(ctx, `
		SELECT `+analysisColumns+` FROM benefit_analyses WHERE name = $1`, name))
}

func (s *PostgresStore) ListBenefitAnalyses(ctx context.Context, filter BenefitAnalysisFilter) ([]*BenefitAnalysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM benefit_analyses WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Strategy != "" {
		n++
		query += fmt.Sprintf(" AND strategy = $%d", n)
		args = append(args, filter.Strategy)
	}
	query += " ORDER BY created_at"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*BenefitAnalysis
	for rows.Next() {
		a, err := s.scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveBenefitResult(ctx context.Context, name string, result map[string]interface{}, computedAt time.Time) error {
	resultJSON, _ := json.Marshal(result)
	tag, err := s.pool.Exec(ctx, `
		UPDATE benefit_analyses SET result = $2, computed_at = $3, updated_at = now()
		WHERE name = $1`, name, resultJSON, computedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("benefit analysis %q not found", name)
	}
	return nil
}

func (s *PostgresStore) ListPendingBenefitAnalyses(ctx context.Context) ([]*BenefitAnalysis, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+analysisColumns+` FROM benefit_analyses
		WHERE result IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*BenefitAnalysis
	for rows.Next() {
		a, err := s.scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetStats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM flood_scenarios),
			(SELECT count(*) FROM flood_scenarios WHERE run),
			(SELECT count(*) FROM benefit_analyses),
			(SELECT count(*) FROM benefit_analyses WHERE result IS NOT NULL)`,
	).Scan(&stats.TotalScenarios, &stats.RunScenarios, &stats.TotalAnalyses, &stats.ComputedAnalyses)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
