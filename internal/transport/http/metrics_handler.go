package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/services"
)

// MetricsHandler serves the Prometheus scrape endpoint and run statistics
type MetricsHandler struct {
	prometheus http.Handler
	health     *services.HealthService
}

// NewMetricsHandler creates a metrics handler. A nil prometheus handler
// answers 404 on /metrics.
func NewMetricsHandler(prometheus http.Handler, health *services.HealthService) *MetricsHandler {
	if prometheus == nil {
		prometheus = http.NotFoundHandler()
	}
	return &MetricsHandler{prometheus: prometheus, health: health}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Handle("/metrics", h.prometheus)
	r.Get("/stats", h.GetStats)
	return r
}

// GetStats handles GET /stats
func (h *MetricsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "ok",
		"stats":  h.health.SystemStats(r.Context()),
	})
}
