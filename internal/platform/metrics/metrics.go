// Package metrics exposes Prometheus instrumentation for the delivery
// worker and the idempotency janitor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DeliveriesAttempted counts queue rows for which a notification send
	// was attempted.
	DeliveriesAttempted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasktrack_deliveries_attempted_total",
		Help: "Number of notification sends attempted by the delivery worker.",
	})

	// DeliveriesFailed counts send attempts that returned an error. Failed
	// rows are still removed from the queue.
	DeliveriesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasktrack_deliveries_failed_total",
		Help: "Number of notification sends that failed.",
	})

	// DeliveriesSkipped counts queue rows dropped without a send attempt
	// because the stored recipient address is invalid.
	DeliveriesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasktrack_deliveries_skipped_total",
		Help: "Number of queue rows skipped due to an invalid recipient.",
	})

	// EmptyQueuePolls counts worker iterations that found no queued row.
	EmptyQueuePolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasktrack_empty_queue_polls_total",
		Help: "Number of delivery worker polls that found the queue empty.",
	})

	// IdempotencyRecordsPurged counts idempotency records removed by the
	// retention janitor.
	IdempotencyRecordsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasktrack_idempotency_records_purged_total",
		Help: "Number of expired idempotency records deleted.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
