// Package http assembles the API server: routes, middleware and the
// listener lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CivicPulse/internal/interfaces/http/handlers"
	"github.com/turtacn/CivicPulse/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies of the
// route tree. Nil handlers leave their routes unmounted.
type RouterConfig struct {
	AnalysisHandler *handlers.AnalysisHandler
	HealthHandler   *handlers.HealthHandler

	// PreviewLimiter throttles POST /preview per client when set.
	PreviewLimiter middleware.RateLimiter
	CORS           middleware.CORSConfig

	Logger         logging.Logger
	Metrics        *prometheus.AppMetrics
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter builds the route tree:
//
//	GET  /healthz
//	GET  /readyz
//	GET  /metrics
//	GET  /api/v1/analysis/latest
//	GET  /api/v1/analysis/runs
//	POST /api/v1/analysis/runs
//	POST /api/v1/analysis/preview
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	r.Use(middleware.Metrics(cfg.Metrics))

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerAnalysisRoutes(api, cfg.AnalysisHandler, cfg.PreviewLimiter)
	})
	return r
}

func registerAnalysisRoutes(r chi.Router, h *handlers.AnalysisHandler, limiter middleware.RateLimiter) {
	if h == nil {
		return
	}
	r.Route("/analysis", func(ar chi.Router) {
		ar.Get("/latest", h.Latest)
		ar.Get("/runs", h.ListRuns)
		ar.Post("/runs", h.EnqueueRun)
		if limiter != nil {
			ar.With(middleware.RateLimit(limiter)).Post("/preview", h.Preview)
		} else {
			ar.Post("/preview", h.Preview)
		}
	})
}

//Personal.AI order the ending
