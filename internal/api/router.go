package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Qini/internal/config"
	"github.com/MikeSquared-Agency/Qini/internal/events"
	"github.com/MikeSquared-Agency/Qini/internal/solver"
	"github.com/MikeSquared-Agency/Qini/internal/store"
)

func NewRouter(s store.Store, ev events.Client, sol *solver.Solver, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	solve := NewSolveHandler(sol, cfg.Solver.MaxUnits, logger)
	jobs := NewJobsHandler(s, ev, cfg.Solver.MaxUnits, logger)
	admin := NewAdminHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ClientIDMiddleware)

		r.Post("/solve", solve.Solve)

		r.Post("/jobs", jobs.Create)
		r.Get("/jobs", jobs.List)
		r.Get("/jobs/{id}", jobs.Get)
		r.Get("/jobs/{id}/curve", jobs.Curve)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.Server.AdminToken))
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
