/*
Package monitoring provides Prometheus metrics for the terminal server.

# Overview

Metrics are registered on a registry owned by each Metrics value rather than
the global default, so tests and embedded servers can create as many as they
like. Metrics implements session.Recorder and is handed to every session.

# Metrics

  - webterm_http_* request counters and histograms (gin middleware)
  - webterm_sessions_active, webterm_sessions_total
  - webterm_session_spawn_failures_total, webterm_session_spawn_duration_seconds
  - webterm_session_duration_seconds, webterm_session_close_total{reason}
  - webterm_relay_bytes_total{direction}
  - webterm_ws_connections, webterm_ws_messages_total{direction,type}
  - webterm_ws_upgrade_failures_total, webterm_ws_origin_rejections_total
  - webterm_uptime_seconds plus Go runtime and process collectors

# Usage

	metrics := monitoring.NewMetrics()
	defer metrics.Close()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
