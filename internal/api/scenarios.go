package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tidewater-labs/floodrisk/internal/events"
	"github.com/tidewater-labs/floodrisk/internal/store"
)

type ScenariosHandler struct {
	store  store.Store
	events events.Client
}

func NewScenariosHandler(s store.Store, ev events.Client) *ScenariosHandler {
	return &ScenariosHandler{store: s, events: ev}
}

func (h *ScenariosHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ScenarioFilter{
		Strategy:   r.URL.Query().Get("strategy"),
		Projection: r.URL.Query().Get("projection"),
	}
	if s := r.URL.Query().Get("run"); s != "" {
		run, err := strconv.ParseBool(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "run must be a boolean"})
			return
		}
		filter.Run = &run
	}

	scenarios, err := h.store.ListScenarios(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if scenarios == nil {
		scenarios = []*store.Scenario{}
	}
	writeJSON(w, http.StatusOK, scenarios)
}

func (h *ScenariosHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sc, err := h.store.GetScenarioByName(r.Context(), name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sc == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "scenario not found"})
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// MarkRun records that the simulation service has executed the scenario.
// Any benefit result depending on it is invalidated by the store; the engine
// re-integrates risk and recomputes analyses on its next sweep.
func (h *ScenariosHandler) MarkRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sc, err := h.store.GetScenarioByName(r.Context(), name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sc == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "scenario not found"})
		return
	}

	if err := h.store.MarkScenarioRun(r.Context(), name, time.Now()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.events != nil {
		_ = h.events.Publish(events.SubjectScenarioRun(name), map[string]string{
			"scenario": name,
		})
	}

	sc, err = h.store.GetScenarioByName(r.Context(), name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sc)
}
