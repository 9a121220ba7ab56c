// Package metrics exposes the Prometheus collectors recorded by the store,
// the error translation layer and the HTTP boundary.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transaction results recorded by ObserveTransaction.
const (
	TxCommitted  = "committed"
	TxRolledBack = "rolled_back"
	TxFailed     = "failed"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tasker_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tasker_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tasker_store_transactions_total",
		Help: "Count of store transactions by result",
	}, []string{"result"})

	transactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tasker_store_transaction_duration_seconds",
		Help:    "Duration of store transactions by result",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tasker_outcomes_total",
		Help: "Count of failures translated into outcomes, by kind",
	}, []string{"kind"})

	domainEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tasker_domain_events_total",
		Help: "Count of committed domain events, by type",
	}, []string{"type"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveTransaction records the result and duration of a store transaction.
func ObserveTransaction(result string, duration time.Duration) {
	transactionsTotal.WithLabelValues(result).Inc()
	transactionDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveOutcome counts a translated failure.
func ObserveOutcome(kind string) {
	outcomesTotal.WithLabelValues(kind).Inc()
}

// ObserveDomainEvent counts a domain event emitted after commit.
func ObserveDomainEvent(eventType string) {
	domainEventsTotal.WithLabelValues(eventType).Inc()
}
