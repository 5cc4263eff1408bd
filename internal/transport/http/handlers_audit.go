package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"veritrail/internal/audit"
	id "veritrail/pkg/domain"

	dErrors "veritrail/pkg/domain-errors"
)

type startSessionRequest struct {
	SessionID id.SessionID `json:"session_id"`
	UserID    id.UserID    `json:"user_id,omitempty"`
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decode(w, r, &req) {
		return
	}

	if !h.recorder.StartSession(r.Context(), req.SessionID, req.UserID) {
		writeError(w, dErrors.Newf(dErrors.CodeConflict, "session %s could not be started", req.SessionID))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session_id": req.SessionID, "state": audit.SessionStarted})
}

func (h *Handler) handleFinalizeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := id.SessionID(chi.URLParam(r, "sessionID"))

	if !h.recorder.FinalizeSession(r.Context(), sessionID) {
		writeError(w, dErrors.Newf(dErrors.CodeConflict, "session %s could not be finalized", sessionID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "state": audit.SessionFinalized})
}

type failSessionRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleFailSession(w http.ResponseWriter, r *http.Request) {
	sessionID := id.SessionID(chi.URLParam(r, "sessionID"))

	var req failSessionRequest
	if !decode(w, r, &req) {
		return
	}

	if !h.recorder.FailSession(r.Context(), sessionID, req.Reason) {
		writeError(w, dErrors.Newf(dErrors.CodeUnavailable, "session %s could not be marked failed", sessionID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "state": audit.SessionErrored})
}

func (h *Handler) handleLogEvent(w http.ResponseWriter, r *http.Request) {
	var in audit.EventInput
	if !decode(w, r, &in) {
		return
	}

	event, ok := h.recorder.LogEvent(r.Context(), in)
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeUnavailable, "audit event was not stored"))
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var in audit.LinkInput
	if !decode(w, r, &in) {
		return
	}

	link, ok := h.recorder.CreateTraceabilityLink(r.Context(), in)
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeUnavailable, "traceability link was not stored"))
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *Handler) handleTrace(w http.ResponseWriter, r *http.Request) {
	outputID := id.OutputID(chi.URLParam(r, "outputID"))

	chain, err := h.recorder.TraceOutputToSources(r.Context(), outputID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chain)
}

func (h *Handler) handleSessionIntegrity(w http.ResponseWriter, r *http.Request) {
	sessionID := id.SessionID(chi.URLParam(r, "sessionID"))

	result, err := h.recorder.VerifySessionIntegrity(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	sessionID := id.SessionID(chi.URLParam(r, "sessionID"))

	report, err := h.recorder.GenerateReport(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
