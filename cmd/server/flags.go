package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/GriffinCanCode/webterm/internal/infrastructure/config"
)

// errHelp is returned by parseFlags when usage was printed.
var errHelp = flag.ErrHelp

// parseFlags overrides cfg with every flag set explicitly in args.
func parseFlags(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("webterm", flag.ContinueOnError)
	fs.SetOutput(out)

	port := fs.StringP("port", "p", cfg.Server.Port, "Listen port (PORT)")
	host := fs.String("host", cfg.Server.Host, "Listen host (HOST)")
	staticDir := fs.String("static-dir", cfg.Server.StaticDir, "Static asset directory (STATIC_DIR)")
	termPath := fs.String("term-path", cfg.WebSocket.Path, "WebSocket endpoint path (TERM_PATH)")
	shell := fs.StringP("shell", "s", cfg.Terminal.Shell, "Shell to spawn per connection (SHELL)")
	cwd := fs.String("cwd", cfg.Terminal.WorkingDir, "Shell working directory (TERM_CWD)")
	sessionsAPI := fs.Bool("sessions-api", cfg.Server.SessionsAPI, "Expose /api/sessions (SESSIONS_API_ENABLED)")
	logLevel := fs.String("log-level", cfg.Logging.Level, "Log level (LOG_LEVEL)")
	dev := fs.Bool("dev", cfg.Logging.Development, "Development logging (LOG_DEV)")

	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: webterm [flags]\n\nFlags override the environment variable named in parentheses.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if fs.Changed("port") {
		cfg.Server.Port = *port
	}
	if fs.Changed("host") {
		cfg.Server.Host = *host
	}
	if fs.Changed("static-dir") {
		cfg.Server.StaticDir = *staticDir
	}
	if fs.Changed("term-path") {
		cfg.WebSocket.Path = *termPath
	}
	if fs.Changed("shell") {
		cfg.Terminal.Shell = *shell
	}
	if fs.Changed("cwd") {
		cfg.Terminal.WorkingDir = *cwd
	}
	if fs.Changed("sessions-api") {
		cfg.Server.SessionsAPI = *sessionsAPI
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}
	if fs.Changed("dev") {
		cfg.Logging.Development = *dev
	}

	return cfg.Validate()
}
