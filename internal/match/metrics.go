package match

import "expvar"

var (
	metricJoinsTotal       = expvar.NewInt("match_joins_total")
	metricRejoinsTotal     = expvar.NewInt("match_rejoins_total")
	metricJoinErrors       = expvar.NewInt("match_join_errors_total")
	metricAuthFailures     = expvar.NewInt("match_auth_failures_total")
	metricDisconnectsTotal = expvar.NewInt("match_disconnects_total")

	metricMovesAccepted = expvar.NewInt("match_moves_accepted_total")
	metricMovesRejected = expvar.NewInt("match_moves_rejected_total")

	metricSessionsStarted   = expvar.NewInt("match_sessions_started_total")
	metricSessionsConcluded = expvar.NewInt("match_sessions_concluded_total")
	metricSessionsAbandoned = expvar.NewInt("match_sessions_abandoned_total")
	metricSessionsDeleted   = expvar.NewInt("match_sessions_deleted_total")
	metricSessionsLive      = expvar.NewInt("match_sessions_live")

	metricReportAttempts = expvar.NewInt("match_report_attempts_total")
	metricReportFailures = expvar.NewInt("match_report_failures_total")
	metricReportSkipped  = expvar.NewInt("match_report_skipped_total")
)
