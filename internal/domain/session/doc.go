// Package session bridges one WebSocket connection to one shell process.
//
// A Session owns an Endpoint (the connection) and a Terminal (the pty-backed
// shell) and moves through Starting, Active, Closing and then Closed. While
// Active two relays run concurrently:
//
//	Terminal.Read ──► Endpoint.Send        shell output, verbatim, in order
//	Endpoint.Receive ──► Classify ──► Terminal.Write / Terminal.Resize
//
// Inbound frames are either a resize control message,
//
//	{"type":"resize","cols":100,"rows":40}
//
// or raw input. Anything that is not a JSON object with type "resize" is
// written to the shell unchanged; a resize message with unusable dimensions
// is dropped so it never shows up as typed text.
//
// Whichever side ends first (connection closed, send failure, shell exit,
// or server shutdown) moves the session to Closing, where the shell is
// terminated and the connection closed exactly once each. Teardown errors
// are logged, never returned.
//
// Registry tracks live sessions for introspection and bulk shutdown:
//
//	release, err := registry.Acquire(sess)
//	if err != nil {
//		return err
//	}
//	defer release()
//	sess.Run(ctx)
package session
