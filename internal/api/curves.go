package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/tidewater-labs/floodrisk/internal/curve"
)

// CurvesHandler serves frequency-curve construction and return-period
// resolution for callers that bring their own event records, e.g. exploratory
// notebooks working off ad-hoc simulation output.
type CurvesHandler struct {
	opts Options
}

func NewCurvesHandler(opts Options) *CurvesHandler {
	return &CurvesHandler{opts: opts}
}

type ReturnPeriodsRequest struct {
	// Events per aggregation unit.
	Events map[string][]curve.EventRecord `json:"events"`
	// Optional overrides; site defaults apply when omitted.
	ReturnPeriods []float64 `json:"return_periods,omitempty"`
	Interpolation string    `json:"interpolation,omitempty"`
}

type ReturnPeriodValue struct {
	ReturnPeriod float64 `json:"return_period"`
	Frequency    float64 `json:"frequency"`
	Value        float64 `json:"value"`
}

type UnitCurve struct {
	Points []curve.Point       `json:"points"`
	Values []ReturnPeriodValue `json:"values"`
}

func (h *CurvesHandler) ReturnPeriods(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ReturnPeriodsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Events) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "events required"})
		return
	}

	periods := req.ReturnPeriods
	if len(periods) == 0 {
		periods = h.opts.ReturnPeriods
	}
	mode := h.opts.Interpolation
	if req.Interpolation != "" {
		mode = curve.Interpolation(req.Interpolation)
		if mode != curve.InterpLogLinear && mode != curve.InterpLinear {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "interpolation must be log or linear"})
			return
		}
	}

	units := make(map[string]UnitCurve, len(req.Events))
	for unit, records := range req.Events {
		c, err := curve.Build(records)
		if err != nil {
			observeComputation("curve", "error", start)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		damages, err := c.ReturnPeriodMap(periods, mode)
		if err != nil {
			observeComputation("curve", "error", start)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		units[unit] = UnitCurve{Points: c.Points, Values: sortedValues(damages)}
	}

	observeComputation("curve", "ok", start)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"return_periods": periods,
		"interpolation":  mode,
		"units":          units,
	})
}

func sortedValues(damages map[float64]float64) []ReturnPeriodValue {
	out := make([]ReturnPeriodValue, 0, len(damages))
	for t, v := range damages {
		out = append(out, ReturnPeriodValue{ReturnPeriod: t, Frequency: 1 / t, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReturnPeriod < out[j].ReturnPeriod })
	return out
}
