package wstransport

import "expvar"

var (
	metricConnectionsTotal  = expvar.NewInt("ws_connections_total")
	metricConnectionsActive = expvar.NewInt("ws_connections_active")
	metricFramesRejected    = expvar.NewInt("ws_frames_rejected_total")
	metricSendOverflow      = expvar.NewInt("ws_send_overflow_total")
)
