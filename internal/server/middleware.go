package server

import (
	"net/http"
	"time"
)

// statusRecorder captures the response status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// route wraps a handler with request metrics, labelled by the route pattern
// rather than the raw URL so the label set stays bounded.
func (s *Server) route(pattern string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.metrics.RecordRequest(pattern, r.Method, http.StatusTooManyRequests, 0)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error: "rate limit exceeded",
				Code:  "rate_limited",
			})
			return
		}

		start := time.Now()
		s.metrics.IncInFlight()
		defer s.metrics.DecInFlight()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(recorder, r)

		s.metrics.RecordRequest(pattern, r.Method, recorder.status, time.Since(start))
	})
}
