// Package health provides HTTP health check endpoints for liveness, readiness, and status probes.
package health

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	jsonResponse "facegate/internal/transport/http/json"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckFunc is a function that checks the health of a dependency.
// It returns nil if healthy, or an error describing the issue.
type CheckFunc func() error

// Handler provides health check endpoints.
type Handler struct {
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New creates a new health handler.
func New() *Handler {
	return &Handler{
		startTime: time.Now(),
		checks:    make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named health check for the readiness probe.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Register mounts health check routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness returns 200 whenever the process is running.
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	jsonResponse.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReadiness runs every registered dependency check and reports 503 when
// any of them fails.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	results := make(map[string]string, len(checks))
	status := http.StatusOK
	overall := "ok"
	for name, check := range checks {
		if err := check(); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			overall = "degraded"
			continue
		}
		results[name] = "ok"
	}

	jsonResponse.WriteJSON(w, status, map[string]any{
		"status": overall,
		"checks": results,
	})
}

// HandleStatus reports version and uptime alongside the readiness summary.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": Version,
		"uptime":  time.Since(h.startTime).String(),
	})
}
