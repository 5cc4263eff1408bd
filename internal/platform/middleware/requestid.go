package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"veritrail/pkg/requestcontext"
)

// PropagateRequestID copies chi's request id into the transport-agnostic
// request context so services and the audit recorder can log it without
// importing chi. Mount after chi's RequestID middleware.
func PropagateRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := chimw.GetReqID(r.Context()); reqID != "" {
			r = r.WithContext(requestcontext.WithRequestID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}
