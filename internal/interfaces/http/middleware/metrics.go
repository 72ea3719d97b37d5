package middleware

import (
	"net/http"
	"time"

	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latencies labelled by the matched chi
// route pattern, so path parameters do not explode label cardinality.
func Metrics(m *prometheus.AppMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrap(w, r)
			next.ServeHTTP(ww, r)
			prometheus.RecordHTTPRequest(m, r.Method, routePattern(r), statusOf(ww), time.Since(start))
		})
	}
}

//Personal.AI order the ending
