// Package logging provides structured logging using uber/zap.
//
// Two modes are offered:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// File operations performed on behalf of clients are written through
// Activity to the "activity" logger. Config.ActivityPaths sends those
// entries to their own file as JSON lines; otherwise they share the main
// outputs.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "5000"))
//	logger.Activity("rename", "From: 'a.txt' to 'b.txt'", zap.String("client", ip))
package logging
