// Package http provides the JSON endpoints of the terminal server: health,
// the optional live-session listing and a metrics snapshot.
package http
