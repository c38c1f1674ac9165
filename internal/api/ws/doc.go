// Package ws serves terminal sessions over WebSocket.
//
// Handler upgrades each request at the terminal path, spawns a shell on a
// fresh pty and runs a session.Session that bridges the two until either
// side goes away. Endpoint is the gorilla/websocket side of that bridge:
// shell output goes out as binary frames (text with WS_TEXT_FRAMES), and
// every inbound frame, text or binary, is handed to the session for
// classification.
package ws
