package metrics

import (
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// UnmatchedPath labels requests no ServeMux pattern matched.
const UnmatchedPath = "unmatched"

// HTTPMiddleware returns middleware that records HTTP metrics. Requests routed by a
// ServeMux are labelled with the matched pattern rather than the raw path, so the
// path label only takes values from the route table.
func HTTPMiddleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.InFlightInc()
			defer reg.InFlightDec()

			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			path := r.Pattern
			if path == "" {
				path = UnmatchedPath
			}
			reg.RecordRequest(r.Method, path, rw.statusCode, time.Since(start).Seconds())
		})
	}
}
