// Package middleware provides the HTTP middleware stack for the terminal
// server.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing for the JSON endpoints
//   - RateLimit: Per-IP token bucket limiting, applied to upgrades as well
//   - Logger: Structured request logging via zap
//
// Rate Limiting:
//   - Per-IP tracking, idle clients are swept after ten minutes
//   - Token bucket algorithm from golang.org/x/time/rate
//   - Global rate limiting option
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.CORSConfigForOrigins(cfg.WebSocket.AllowedOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	router.Use(middleware.Logger(logger.Logger))
package middleware
