package httptransport

import (
	"net/http"
	"testing"

	"veritrail/internal/risk"
	"veritrail/pkg/testutil"
)

// Error responses share one envelope: {"code": ..., "error": ...}. These
// tests pin the code each failure class maps to.
func TestErrorEnvelope(t *testing.T) {
	router := newTestRouter(t)

	testutil.Given(t, "a request body that is not JSON", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/v1/match", "{not json")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	testutil.Given(t, "a risk explanation for a standard never scored", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/v1/risk/standards/std-ghost")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	testutil.Given(t, "a session started twice", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/audit/sessions",
			map[string]any{"session_id": "sess-dup"})
		testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusCreated)

		req = testutil.NewJSONRequest(t, http.MethodPost, "/v1/audit/sessions",
			map[string]any{"session_id": "sess-dup"})
		testutil.AssertStatusAndError(t, testutil.DoRequest(router, req), http.StatusConflict, "conflict")
	})

	testutil.Given(t, "a prediction with coverage out of range", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/risk/predict",
			risk.Input{StandardID: "std-assess", CoveragePct: 140})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestHealthzEnvelope(t *testing.T) {
	router := newTestRouter(t)

	req := testutil.NewRequest(t, http.MethodGet, "/healthz")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "ok")
}
