package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tidewater-labs/floodrisk/internal/risk"
)

// RiskHandler serves standalone risk integration and equity weighting.
type RiskHandler struct {
	weighter *risk.Weighter
	opts     Options
}

func NewRiskHandler(weighter *risk.Weighter, opts Options) *RiskHandler {
	return &RiskHandler{weighter: weighter, opts: opts}
}

type EADRequest struct {
	// Damage at each return period, as produced by the simulator.
	Damages []ReturnPeriodDamage `json:"damages"`
	// Optional tail overrides; the site policy applies when omitted.
	FrequentTail string `json:"frequent_tail,omitempty"`
	RareTail     string `json:"rare_tail,omitempty"`
}

type ReturnPeriodDamage struct {
	ReturnPeriod float64 `json:"return_period"`
	Damage       float64 `json:"damage"`
}

func (h *RiskHandler) EAD(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req EADRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	policy := h.opts.TailPolicy
	if req.FrequentTail != "" {
		policy.Frequent = risk.TailRule(req.FrequentTail)
	}
	if req.RareTail != "" {
		policy.Rare = risk.TailRule(req.RareTail)
	}
	if err := policy.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	damages := make(map[float64]float64, len(req.Damages))
	for _, d := range req.Damages {
		damages[d.ReturnPeriod] = d.Damage
	}
	points, err := risk.DamageCurveFromReturnPeriods(damages)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ead, err := risk.ExpectedAnnualDamage(points, policy)
	if err != nil {
		observeComputation("ead", "error", start)
		status := http.StatusInternalServerError
		if errors.Is(err, risk.ErrInsufficientCurvePoints) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	observeComputation("ead", "ok", start)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ead":         ead,
		"tail_policy": policy,
	})
}

type EquityRequest struct {
	Level string                 `json:"level"`
	Units []risk.AggregationUnit `json:"units"`
}

func (h *RiskHandler) Equity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req EquityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Level == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "level required"})
		return
	}

	weighted, err := h.weighter.Apply(req.Level, req.Units)
	if err != nil {
		observeComputation("equity", "error", start)
		status := http.StatusInternalServerError
		if errors.Is(err, risk.ErrUnsupportedAggregationLevel) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	observeComputation("equity", "ok", start)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"level": req.Level,
		"units": weighted,
	})
}
