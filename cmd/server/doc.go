// Package main is the entry point for the webterm server.
//
// webterm serves a browser terminal: each WebSocket connection at the
// terminal path gets its own shell on a fresh pseudo-terminal, torn down
// when either side goes away.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Listen on :3000 and spawn $SHELL per connection
//	./webterm
//
//	# Different port and shell, colored debug logs
//	./webterm -p 8080 --shell /bin/zsh --dev --log-level debug
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, bounded by SHUTDOWN_TIMEOUT
package main
