package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/trellis/pkg/graph"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trellis_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trellis_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	storeOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trellis_store_operations_total",
			Help: "Total number of store operations by outcome",
		},
		[]string{"op", "outcome"},
	)
)

// observeStoreOp records the outcome of one store call made on behalf of a
// request. NotFound counts as its own outcome: it is a normal result, not
// a failure.
func observeStoreOp(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case graph.IsNotFound(err):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	storeOpsTotal.WithLabelValues(op, outcome).Inc()
}
