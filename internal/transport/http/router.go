package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"facegate/internal/identity/handler"
	"facegate/internal/platform/health"
	"facegate/internal/platform/metrics"
	"facegate/internal/platform/middleware"
)

// NewRouter wires all public endpoints with middleware. The content-type
// gate only applies to body-carrying methods, so the GET-only operational
// endpoints pass through it untouched.
func NewRouter(identity *handler.Handler, healthHandler *health.Handler, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	if m != nil {
		r.Use(middleware.Latency(m))
	}

	// Registration, enrollment, verification, and directory endpoints.
	identity.Register(r)

	healthHandler.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
