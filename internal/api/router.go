package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidewater-labs/floodrisk/internal/curve"
	"github.com/tidewater-labs/floodrisk/internal/engine"
	"github.com/tidewater-labs/floodrisk/internal/events"
	"github.com/tidewater-labs/floodrisk/internal/risk"
	"github.com/tidewater-labs/floodrisk/internal/scenario"
	"github.com/tidewater-labs/floodrisk/internal/store"
)

// Options carries the site defaults handlers fall back to when a request
// does not override them.
type Options struct {
	ReturnPeriods       []float64
	Interpolation       curve.Interpolation
	TailPolicy          risk.TailPolicy
	DefaultDiscountRate float64
}

func NewRouter(s store.Store, res *scenario.Resolver, eng *engine.Engine, weighter *risk.Weighter, ev events.Client, opts Options, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	curves := NewCurvesHandler(opts)
	riskH := NewRiskHandler(weighter, opts)
	analyses := NewAnalysesHandler(s, res, eng, ev, opts)
	scenarios := NewScenariosHandler(s, ev)
	admin := NewAdminHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/curves/returnperiods", curves.ReturnPeriods)

		r.Post("/risk/ead", riskH.EAD)
		r.Post("/risk/equity", riskH.Equity)

		r.Post("/analyses", analyses.Create)
		r.Get("/analyses", analyses.List)
		r.Get("/analyses/{name}", analyses.Get)
		r.Get("/analyses/{name}/requirements", analyses.Requirements)
		r.Post("/analyses/{name}/scenarios", analyses.Materialize)
		r.Post("/analyses/{name}/compute", analyses.Compute)

		r.Get("/scenarios", scenarios.List)
		r.Get("/scenarios/{name}", scenarios.Get)
		r.Post("/scenarios/{name}/run", scenarios.MarkRun)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Get("/stats", admin.Stats)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
