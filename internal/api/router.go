package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/db-bootstrap-api/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the router.
type Options struct {
	State StateReader
	// Readiness backs /readyz with a live dependency check. Optional.
	Readiness   observability.ReadinessChecker
	Metrics     *observability.Metrics
	Logger      *slog.Logger
	MaxInFlight int
}

// NewRouter wires the endpoints and middleware.
func NewRouter(opts Options) http.Handler {
	h := &handlers{state: opts.State, logger: opts.Logger, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)
	r.Use(observability.MetricsMiddleware(opts.Metrics))
	if opts.MaxInFlight > 0 {
		r.Use(InFlightLimit(opts.MaxInFlight, opts.Metrics))
	}

	r.Get("/health", h.health)
	r.Get("/status", h.status)
	r.Post("/process", h.process)

	r.Get("/healthz", observability.LivenessHandler())
	if opts.Readiness != nil {
		r.Get("/readyz", observability.ReadinessHandler(opts.Readiness))
	}
	r.Handle("/metrics", promhttp.HandlerFor(opts.Metrics.Gatherer(), promhttp.HandlerOpts{}))

	return r
}
