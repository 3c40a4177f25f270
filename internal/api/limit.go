package api

import (
	"net/http"

	"github.com/couchcryptid/db-bootstrap-api/internal/observability"
)

// InFlightLimit caps concurrently served requests. Requests beyond the cap
// are turned away with 503 rather than queued.
func InFlightLimit(limit int, m *observability.Metrics) func(http.Handler) http.Handler {
	sem := make(chan struct{}, limit)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
				next.ServeHTTP(w, r)
			default:
				m.HTTPRejected.Inc()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":"server busy, try again"}`))
			}
		})
	}
}
