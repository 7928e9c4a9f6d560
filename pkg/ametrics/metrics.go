// Package ametrics exposes Prometheus instrumentation for the cluster
// tender, the per-node connection pools, and the transaction drivers.
package ametrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster / tender metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aeroclient_nodes_total",
			Help: "Total number of known cluster nodes by status",
		},
		[]string{"status"},
	)

	TendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aeroclient_tend_duration_seconds",
			Help:    "Time taken for one tend cycle to complete",
			Buckets: prometheus.DefBuckets,
		},
	)

	TendCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeroclient_tend_cycles_total",
			Help: "Total number of tend cycles run, by outcome",
		},
		[]string{"outcome"},
	)

	PartitionGenerationRefreshesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aeroclient_partition_generation_refreshes_total",
			Help: "Total number of per-node partition-map refreshes",
		},
	)

	NodesRetiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aeroclient_nodes_retired_total",
			Help: "Total number of nodes retired due to health score or name mismatch",
		},
	)

	// Connection pool metrics
	PoolIdleConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aeroclient_pool_idle_connections",
			Help: "Idle connections currently held in a node's pool",
		},
		[]string{"node", "kind"},
	)

	PoolConnectionsOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeroclient_pool_connections_opened_total",
			Help: "Total connections opened per node",
		},
		[]string{"node"},
	)

	PoolConnectionsClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeroclient_pool_connections_closed_total",
			Help: "Total connections closed per node, by reason",
		},
		[]string{"node", "reason"},
	)

	// Transaction driver metrics
	TransactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aeroclient_transaction_duration_seconds",
			Help:    "Transaction duration in seconds by command kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	TransactionRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeroclient_transaction_retries_total",
			Help: "Total number of transaction retries by command kind",
		},
		[]string{"command"},
	)

	TransactionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeroclient_transaction_errors_total",
			Help: "Total number of transaction failures by result code",
		},
		[]string{"command", "result_code"},
	)
)

func init() {
	prometheus.MustRegister(
		NodesTotal,
		TendDuration,
		TendCyclesTotal,
		PartitionGenerationRefreshesTotal,
		NodesRetiredTotal,
		PoolIdleConnections,
		PoolConnectionsOpenedTotal,
		PoolConnectionsClosedTotal,
		TransactionDuration,
		TransactionRetriesTotal,
		TransactionErrorsTotal,
	)
}

// Handler returns the Prometheus HTTP handler for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
