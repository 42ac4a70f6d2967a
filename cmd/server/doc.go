// Package main is the entry point for the QuickFileManager server.
//
// The server exposes one managed directory over HTTP: browsing, text
// editing, uploads (single and chunked), downloads, zip creation and
// extraction, archive inspection, rename and move. Connected browsers
// receive change notifications over a websocket.
//
// Configuration:
//   - config.yml (or the file named by -config)
//   - Environment variables (override the file)
//   - CLI flags (override both)
//
// Usage:
//
//	./server -config config.yml
//	./server -root ./managed_files -port 5000 -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
