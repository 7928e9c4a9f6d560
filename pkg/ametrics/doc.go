/*
Package ametrics provides Prometheus metrics collection and exposition for
the cluster client.

The metrics package defines and registers gauges, counters, and histograms
using the Prometheus client library, giving embedding applications
observability into cluster membership, connection pool occupancy, and
transaction latency/retry/error rates without requiring the client to ship
its own dashboard or alerting stack.

# Usage

Expose the registered metrics over HTTP in the embedding application:

	http.Handle("/metrics", ametrics.Handler())

Time an operation and record it against a histogram:

	timer := ametrics.NewTimer()
	defer timer.ObserveDuration(ametrics.TendDuration)
*/
package ametrics
