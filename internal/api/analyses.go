package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tidewater-labs/floodrisk/internal/engine"
	"github.com/tidewater-labs/floodrisk/internal/events"
	"github.com/tidewater-labs/floodrisk/internal/scenario"
	"github.com/tidewater-labs/floodrisk/internal/store"
)

type AnalysesHandler struct {
	store    store.Store
	resolver *scenario.Resolver
	engine   *engine.Engine
	events   events.Client
	opts     Options
}

func NewAnalysesHandler(s store.Store, res *scenario.Resolver, eng *engine.Engine, ev events.Client, opts Options) *AnalysesHandler {
	return &AnalysesHandler{store: s, resolver: res, engine: eng, events: ev, opts: opts}
}

type CreateAnalysisRequest struct {
	Name              string   `json:"name"`
	Strategy          string   `json:"strategy"`
	BaselineStrategy  string   `json:"baseline_strategy"`
	CurrentProjection string   `json:"current_projection"`
	CurrentYear       int      `json:"current_year"`
	FutureProjection  string   `json:"future_projection"`
	FutureYear        int      `json:"future_year"`
	DiscountRate      *float64 `json:"discount_rate,omitempty"`

	ImplementationCost *float64 `json:"implementation_cost,omitempty"`
	AnnualMaintenance  *float64 `json:"annual_maintenance,omitempty"`
}

func (h *AnalysesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Strategy == "" || req.BaselineStrategy == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, strategy and baseline_strategy required"})
		return
	}
	if req.CurrentProjection == "" || req.FutureProjection == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "current_projection and future_projection required"})
		return
	}
	if req.FutureYear < req.CurrentYear {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "future_year must not precede current_year"})
		return
	}

	existing, err := h.store.GetBenefitAnalysisByName(r.Context(), req.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "analysis already exists"})
		return
	}

	a := &store.BenefitAnalysis{
		Name:               req.Name,
		Strategy:           req.Strategy,
		BaselineStrategy:   req.BaselineStrategy,
		CurrentProjection:  req.CurrentProjection,
		CurrentYear:        req.CurrentYear,
		FutureProjection:   req.FutureProjection,
		FutureYear:         req.FutureYear,
		DiscountRate:       h.opts.DefaultDiscountRate,
		ImplementationCost: req.ImplementationCost,
		AnnualMaintenance:  req.AnnualMaintenance,
	}
	if req.DiscountRate != nil {
		a.DiscountRate = *req.DiscountRate
	}
	scenario.ApplyScenarioNames(a)

	if err := h.store.CreateBenefitAnalysis(r.Context(), a); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.events != nil {
		_ = h.events.Publish(events.SubjectAnalysisCreated(a.Name), map[string]string{
			"analysis": a.Name,
			"strategy": a.Strategy,
		})
	}

	writeJSON(w, http.StatusCreated, a)
}

func (h *AnalysesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.BenefitAnalysisFilter{
		Strategy: r.URL.Query().Get("strategy"),
	}

	analyses, err := h.store.ListBenefitAnalyses(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if analyses == nil {
		analyses = []*store.BenefitAnalysis{}
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (h *AnalysesHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := h.fetch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Requirements reports the state of the four prerequisite scenarios without
// creating or computing anything.
func (h *AnalysesHandler) Requirements(w http.ResponseWriter, r *http.Request) {
	a, ok := h.fetch(w, r)
	if !ok {
		return
	}

	check, err := h.resolver.Check(r.Context(), a)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, check)
}

// Materialize creates the prerequisite scenarios that do not exist yet.
// Repeating the call is harmless; already-present scenarios are untouched.
func (h *AnalysesHandler) Materialize(w http.ResponseWriter, r *http.Request) {
	a, ok := h.fetch(w, r)
	if !ok {
		return
	}

	created, err := h.resolver.MaterializeMissing(r.Context(), a)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	scenariosMaterialized.Add(float64(len(created)))

	if h.events != nil {
		for _, name := range created {
			_ = h.events.Publish(events.SubjectScenarioCreated(name), map[string]string{
				"scenario": name,
				"analysis": a.Name,
			})
		}
	}
	if created == nil {
		created = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"created":  created,
		"required": a.RequiredScenarioNames(),
	})
}

// Compute runs the benefit analysis now. If any prerequisite scenario is
// missing or unrun it answers 409 and names every unmet scenario, so a caller
// can run them and retry.
func (h *AnalysesHandler) Compute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	a, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if a.Result != nil {
		writeJSON(w, http.StatusOK, a)
		return
	}

	if err := h.engine.ComputeAnalysis(r.Context(), a); err != nil {
		var pe *scenario.PrerequisitesError
		if errors.As(err, &pe) {
			observeComputation("benefit", "blocked", start)
			if h.events != nil {
				_ = h.events.Publish(events.SubjectAnalysisBlocked(a.Name), map[string]interface{}{
					"analysis": a.Name,
					"missing":  pe.Missing,
					"unrun":    pe.Unrun,
				})
			}
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":   pe.Error(),
				"missing": pe.Missing,
				"unrun":   pe.Unrun,
			})
			return
		}
		observeComputation("benefit", "error", start)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	computed, err := h.store.GetBenefitAnalysisByName(r.Context(), a.Name)
	if err != nil || computed == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "analysis vanished after compute"})
		return
	}

	observeComputation("benefit", "ok", start)
	writeJSON(w, http.StatusOK, computed)
}

func (h *AnalysesHandler) fetch(w http.ResponseWriter, r *http.Request) (*store.BenefitAnalysis, bool) {
	name := chi.URLParam(r, "name")
	a, err := h.store.GetBenefitAnalysisByName(r.Context(), name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "analysis not found"})
		return nil, false
	}
	return a, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
