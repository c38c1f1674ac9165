// Package config provides 12-factor configuration management for webterm.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags in cmd/server can override environment variables.
//
// Configuration Sections:
//   - Server: listen address, static assets, shutdown bound
//   - Terminal: shell binary, TERM name, initial size, working directory
//   - WebSocket: endpoint path, frame limits, origin policy
//   - Logging: log level and output format
//   - RateLimit: per-IP and global rate limiting configuration
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("http://localhost:%s\n", cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, STATIC_DIR, SESSIONS_API_ENABLED, SHUTDOWN_TIMEOUT
//   - SHELL, TERM_NAME, TERM_COLS, TERM_ROWS, TERM_CWD
//   - TERM_DRAIN_TIMEOUT, TERM_KILL_TIMEOUT
//   - TERM_PATH, WS_READ_LIMIT, WS_TEXT_FRAMES, WS_ALLOWED_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - RATE_LIMIT_GLOBAL_RPS, RATE_LIMIT_GLOBAL_BURST
package config
