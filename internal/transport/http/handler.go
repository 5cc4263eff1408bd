// Package httptransport is the thin HTTP layer over the scoring core. It
// parses requests, delegates to domain services, and maps results and
// domain errors to JSON responses; no business logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veritrail/internal/audit"
	"veritrail/internal/matcher"
	"veritrail/internal/risk"
	"veritrail/internal/trust"
	id "veritrail/pkg/domain"
)

// Handler bundles the domain services behind the HTTP surface.
type Handler struct {
	matcher  *matcher.Service
	trust    *trust.Scorer
	risk     *risk.Explainer
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewHandler creates the HTTP handler over the given services.
func NewHandler(
	m *matcher.Service,
	t *trust.Scorer,
	r *risk.Explainer,
	rec *audit.Recorder,
	logger *slog.Logger,
) *Handler {
	return &Handler{matcher: m, trust: t, risk: r, recorder: rec, logger: logger}
}

type matchRequest struct {
	Evidence    matcher.Evidence `json:"evidence"`
	StandardIDs []id.StandardID  `json:"standard_ids"`
	Strategy    matcher.Strategy `json:"strategy"`
}

func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !decode(w, r, &req) {
		return
	}

	matches, err := h.matcher.Match(r.Context(), req.Evidence, req.StandardIDs, req.Strategy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

type matchBatchRequest struct {
	Evidence    []matcher.Evidence `json:"evidence"`
	StandardIDs []id.StandardID    `json:"standard_ids"`
	Strategy    matcher.Strategy   `json:"strategy"`
}

func (h *Handler) handleMatchBatch(w http.ResponseWriter, r *http.Request) {
	var req matchBatchRequest
	if !decode(w, r, &req) {
		return
	}

	results, err := h.matcher.MatchBatch(r.Context(), req.Evidence, req.StandardIDs, req.Strategy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) handleTrustScore(w http.ResponseWriter, r *http.Request) {
	var in trust.Input
	if !decode(w, r, &in) {
		return
	}

	score, err := h.trust.Score(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (h *Handler) handleRiskPredict(w http.ResponseWriter, r *http.Request) {
	var in risk.Input
	if !decode(w, r, &in) {
		return
	}

	score, err := h.risk.Compute(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (h *Handler) handleRiskAggregate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.risk.Aggregate(r.Context()))
}

func (h *Handler) handleRiskExplain(w http.ResponseWriter, r *http.Request) {
	standardID := id.StandardID(chi.URLParam(r, "standardID"))

	score, err := h.risk.Explain(r.Context(), standardID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}
