package httptransport

import "expvar"

var (
	metricSnapshotQueries  = expvar.NewInt("session_snapshot_query_total")
	metricSnapshotNotFound = expvar.NewInt("session_snapshot_not_found_total")
	metricHealthFailures   = expvar.NewInt("healthz_failures_total")
)
