// Package server assembles the QuickFileManager HTTP server.
//
// It builds the logger, metrics registry, filesystem provider and change hub
// from a loaded configuration and mounts them on a gin router:
//
//	/api/...     file, upload and archive operations
//	/download/*  file downloads and previews
//	/updates     websocket change notifications
//	/metrics     Prometheus exposition
//	/health      liveness and summary metrics
//
// Shutdown stops the listener gracefully and then discards unfinished
// chunked uploads.
package server
