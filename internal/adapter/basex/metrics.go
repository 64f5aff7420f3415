package basex

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestDuration tracks connector call latency by operation and outcome.
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dws_basex_request_duration_seconds",
		Help:    "BaseX request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"op", "result"})

	// reconnectsTotal counts sessions re-established after a connection failure.
	reconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dws_basex_reconnects_total",
		Help: "Total BaseX sessions re-established after a connection failure",
	})

	// databaseSwitchesTotal counts temporary OPEN of a database named in a query.
	databaseSwitchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dws_basex_database_switches_total",
		Help: "Total temporary database switches for queries naming another database",
	})
)

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsConnectionError(err):
		return "connection_error"
	default:
		return "error"
	}
}
