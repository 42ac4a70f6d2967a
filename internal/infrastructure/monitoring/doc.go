/*
Package monitoring provides Prometheus metrics for the file server.

Every Metrics value owns a private registry, so tests and embedded servers do
not collide on the global default registry.

# Metrics

- HTTP request metrics (latency, throughput, size) labelled by route template
- File operation counters and durations by operation and outcome
- Upload chunk, byte, assembly and reclamation counters
- Active upload sessions, read on scrape from the coordinator
- Archive listings by archive type
- WebSocket connection and message metrics

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	metrics.TrackActiveUploads(coordinator.ActiveSessions)

	timer := monitoring.NewTimer(metrics, "rename")
	// ... perform operation ...
	timer.Stop("success")

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
