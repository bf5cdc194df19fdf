package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tidewater-labs/floodrisk/internal/benefit"
	"github.com/tidewater-labs/floodrisk/internal/curve"
	"github.com/tidewater-labs/floodrisk/internal/engine"
	"github.com/tidewater-labs/floodrisk/internal/risk"
	"github.com/tidewater-labs/floodrisk/internal/scenario"
	"github.com/tidewater-labs/floodrisk/internal/store"
)

// MockStore implements store.Store for handler tests
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetScenarioByName(ctx context.Context, name string) (*store.Scenario, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Scenario), args.Error(1)
}

func (m *MockStore) GetBenefitAnalysisByName(ctx context.Context, name string) (*store.BenefitAnalysis, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.BenefitAnalysis), args.Error(1)
}

func (m *MockStore) CreateBenefitAnalysis(ctx context.Context, a *store.BenefitAnalysis) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockStore) SaveBenefitResult(ctx context.Context, name string, result map[string]interface{}, computedAt time.Time) error {
	args := m.Called(ctx, name, result, computedAt)
	return args.Error(0)
}

// Remaining store methods are unused by these handlers
func (m *MockStore) CreateScenario(ctx context.Context, s *store.Scenario) (bool, error) {
	return false, nil
}
func (m *MockStore) GetScenario(ctx context.Context, id uuid.UUID) (*store.Scenario, error) {
	return nil, nil
}
func (m *MockStore) ListScenarios(ctx context.Context, filter store.ScenarioFilter) ([]*store.Scenario, error) {
	return nil, nil
}
func (m *MockStore) MarkScenarioRun(ctx context.Context, name string, runAt time.Time) error {
	return nil
}
func (m *MockStore) SaveRiskResults(ctx context.Context, name string, results map[string]float64, totalEAD float64) error {
	return nil
}
func (m *MockStore) ListBenefitAnalyses(ctx context.Context, filter store.BenefitAnalysisFilter) ([]*store.BenefitAnalysis, error) {
	return nil, nil
}
func (m *MockStore) ListPendingBenefitAnalyses(ctx context.Context) ([]*store.BenefitAnalysis, error) {
	return nil, nil
}
func (m *MockStore) GetStats(ctx context.Context) (*store.StoreStats, error) { return nil, nil }
func (m *MockStore) Close() error                                            { return nil }

// MockEvents implements events.Client for handler tests
type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func (m *MockEvents) Close() {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func apiOptions() Options {
	return Options{
		ReturnPeriods:       []float64{2, 10, 100},
		Interpolation:       curve.InterpLogLinear,
		TailPolicy:          risk.DefaultTailPolicy(),
		DefaultDiscountRate: 0.03,
	}
}

func newTestHandler(ms *MockStore, ev *MockEvents) *AnalysesHandler {
	res := scenario.NewResolver(ms, testLogger())
	eng := engine.New(ms, nil, ev, res, engine.Options{
		ReturnPeriods: []float64{2, 10, 100},
		Interpolation: curve.InterpLogLinear,
		TailPolicy:    risk.DefaultTailPolicy(),
		IRR:           benefit.DefaultIRRConfig(),
		SweepInterval: time.Hour,
	}, testLogger())
	return NewAnalysesHandler(ms, res, eng, ev, apiOptions())
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func testAnalysis() *store.BenefitAnalysis {
	a := &store.BenefitAnalysis{
		ID:                uuid.New(),
		Name:              "seawall_vs_nothing",
		Strategy:          "Seawall 2m",
		BaselineStrategy:  "No Measures",
		CurrentProjection: "current",
		CurrentYear:       2025,
		FutureProjection:  "RCP8.5",
		FutureYear:        2030,
		DiscountRate:      0.03,
	}
	scenario.ApplyScenarioNames(a)
	return a
}

func TestCreateAnalysisDerivesScenarioNames(t *testing.T) {
	ms := &MockStore{}
	ev := &MockEvents{}
	handler := newTestHandler(ms, ev)

	ms.On("GetBenefitAnalysisByName", mock.Anything, "seawall_vs_nothing").Return(nil, nil)
	ms.On("CreateBenefitAnalysis", mock.Anything, mock.AnythingOfType("*store.BenefitAnalysis")).Return(nil)
	ev.On("Publish", mock.AnythingOfType("string"), mock.Anything).Return(nil)

	body, _ := json.Marshal(CreateAnalysisRequest{
		Name:              "seawall_vs_nothing",
		Strategy:          "Seawall 2m",
		BaselineStrategy:  "No Measures",
		CurrentProjection: "current",
		CurrentYear:       2025,
		FutureProjection:  "RCP8.5",
		FutureYear:        2030,
	})
	req := httptest.NewRequest("POST", "/api/v1/analyses", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	handler.Create(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got store.BenefitAnalysis
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "no_measures_current_2025", got.BaselineCurrentScenario)
	assert.Equal(t, "seawall_2m_current_2025", got.StrategyCurrentScenario)
	assert.Equal(t, "no_measures_rcp8_5_2030", got.BaselineFutureScenario)
	assert.Equal(t, "seawall_2m_rcp8_5_2030", got.StrategyFutureScenario)
	// No discount rate given: site default applies
	assert.Equal(t, 0.03, got.DiscountRate)
	ms.AssertExpectations(t)
}

func TestComputeBlockedEnumeratesScenarios(t *testing.T) {
	ms := &MockStore{}
	ev := &MockEvents{}
	handler := newTestHandler(ms, ev)

	a := testAnalysis()
	ms.On("GetBenefitAnalysisByName", mock.Anything, a.Name).Return(a, nil)
	// Two scenarios exist but are unrun, two are missing entirely.
	ms.On("GetScenarioByName", mock.Anything, a.BaselineCurrentScenario).
		Return(&store.Scenario{Name: a.BaselineCurrentScenario}, nil)
	ms.On("GetScenarioByName", mock.Anything, a.StrategyCurrentScenario).
		Return(&store.Scenario{Name: a.StrategyCurrentScenario}, nil)
	ms.On("GetScenarioByName", mock.Anything, a.BaselineFutureScenario).Return(nil, nil)
	ms.On("GetScenarioByName", mock.Anything, a.StrategyFutureScenario).Return(nil, nil)
	ev.On("Publish", mock.AnythingOfType("string"), mock.Anything).Return(nil)

	req := httptest.NewRequest("POST", "/api/v1/analyses/"+a.Name+"/compute", nil)
	req = withURLParam(req, "name", a.Name)
	rr := httptest.NewRecorder()
	handler.Compute(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)

	var resp struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing"`
		Unrun   []string `json:"unrun"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{a.BaselineFutureScenario, a.StrategyFutureScenario}, resp.Missing)
	assert.ElementsMatch(t, []string{a.BaselineCurrentScenario, a.StrategyCurrentScenario}, resp.Unrun)
	assert.Contains(t, resp.Error, a.BaselineFutureScenario)
	ms.AssertExpectations(t)
}

func TestComputeReadyAnalysis(t *testing.T) {
	ms := &MockStore{}
	ev := &MockEvents{}
	handler := newTestHandler(ms, ev)

	a := testAnalysis()
	eads := map[string]float64{
		a.BaselineCurrentScenario: 100,
		a.StrategyCurrentScenario: 40,
		a.BaselineFutureScenario:  300,
		a.StrategyFutureScenario:  150,
	}
	ms.On("GetBenefitAnalysisByName", mock.Anything, a.Name).Return(a, nil)
	for name, ead := range eads {
		e := ead
		ms.On("GetScenarioByName", mock.Anything, name).
			Return(&store.Scenario{Name: name, Run: true, TotalEAD: &e}, nil)
	}
	ms.On("SaveBenefitResult", mock.Anything, a.Name, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			a.Result = args.Get(2).(map[string]interface{})
		}).
		Return(nil)
	ev.On("Publish", mock.AnythingOfType("string"), mock.Anything).Return(nil)

	req := httptest.NewRequest("POST", "/api/v1/analyses/"+a.Name+"/compute", nil)
	req = withURLParam(req, "name", a.Name)
	rr := httptest.NewRecorder()
	handler.Compute(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got store.BenefitAnalysis
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.NotNil(t, got.Result)
	assert.InDelta(t, 577.215, got.Result["total_benefits"], 0.01)
	ms.AssertExpectations(t)
	ev.AssertExpectations(t)
}

func TestComputeUnknownAnalysis(t *testing.T) {
	ms := &MockStore{}
	handler := newTestHandler(ms, &MockEvents{})

	ms.On("GetBenefitAnalysisByName", mock.Anything, "nope").Return(nil, nil)

	req := httptest.NewRequest("POST", "/api/v1/analyses/nope/compute", nil)
	req = withURLParam(req, "name", "nope")
	rr := httptest.NewRecorder()
	handler.Compute(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
