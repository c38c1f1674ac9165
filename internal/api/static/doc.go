// Package static serves the browser client. A directory given by
// STATIC_DIR takes precedence; without one the embedded xterm.js page is
// served so the binary works on its own.
package static
