package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veritrail/internal/platform/metrics"
	"veritrail/internal/platform/middleware"
)

// NewRouter wires all endpoints behind the standard middleware stack.
func NewRouter(h *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.PropagateRequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if m != nil {
		r.Use(middleware.Observe(m))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/match", h.handleMatch)
		r.Post("/match/batch", h.handleMatchBatch)

		r.Post("/trust/score", h.handleTrustScore)

		r.Post("/risk/predict", h.handleRiskPredict)
		r.Get("/risk/aggregate", h.handleRiskAggregate)
		r.Get("/risk/standards/{standardID}", h.handleRiskExplain)

		r.Route("/audit", func(r chi.Router) {
			r.Post("/sessions", h.handleStartSession)
			r.Post("/sessions/{sessionID}/finalize", h.handleFinalizeSession)
			r.Post("/sessions/{sessionID}/fail", h.handleFailSession)
			r.Get("/sessions/{sessionID}/integrity", h.handleSessionIntegrity)
			r.Get("/sessions/{sessionID}/report", h.handleSessionReport)
			r.Post("/events", h.handleLogEvent)
			r.Post("/links", h.handleCreateLink)
			r.Get("/outputs/{outputID}/trace", h.handleTrace)
		})
	})

	return r
}
