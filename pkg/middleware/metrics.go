package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/callsight/insights/internal/metrics"
)

// Metrics returns middleware that records request count and latency
// under the given endpoint label. Apply per-route to keep label
// cardinality fixed.
func Metrics(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			metrics.HTTPRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(sw.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		})
	}
}
