// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Session code logs through child loggers carrying the session ID so a
// single connection's lifecycle can be followed with one filter.
//
// Example Usage:
//
//	logger := logging.FromSettings("info", false)
//	logger.Info("Server starting", zap.String("port", "3000"))
//	logger.Named("session").With(zap.String("session_id", id)).Debug("resize")
package logging
