/*
Package tracing propagates a per-request trace ID.

# Overview

Every HTTP request gets a trace ID, taken from the X-Trace-ID header when
the caller sent a well-formed one and generated otherwise. The ID is stored
in the request context and returned in the response header. A WebSocket
upgrade keeps its trace ID for the lifetime of the session, so every log
line a session writes can be tied back to the request that opened it.

# Usage

	router.Use(tracing.HTTPMiddleware())

	logger.Info("session active", tracing.Field(ctx))
*/
package tracing
