// Package server assembles the gin router, middleware, the WebSocket
// terminal endpoint and the static client into one http.Server, and owns
// its graceful shutdown.
package server
