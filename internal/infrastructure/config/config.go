package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Terminal  TerminalConfig
	WebSocket WebSocketConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"3000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	StaticDir       string        `envconfig:"STATIC_DIR" default:"public"`
	SessionsAPI     bool          `envconfig:"SESSIONS_API_ENABLED" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// TerminalConfig holds the spawn parameters for every session's shell.
type TerminalConfig struct {
	Shell        string        `envconfig:"SHELL" default:"bash"`
	Name         string        `envconfig:"TERM_NAME" default:"xterm-color"`
	Cols         int           `envconfig:"TERM_COLS" default:"80"`
	Rows         int           `envconfig:"TERM_ROWS" default:"24"`
	WorkingDir   string        `envconfig:"TERM_CWD"`
	DrainTimeout time.Duration `envconfig:"TERM_DRAIN_TIMEOUT" default:"1s"`
	KillTimeout  time.Duration `envconfig:"TERM_KILL_TIMEOUT" default:"2s"`
}

// WebSocketConfig holds the bridge endpoint configuration.
type WebSocketConfig struct {
	Path           string   `envconfig:"TERM_PATH" default:"/term"`
	ReadLimit      int64    `envconfig:"WS_READ_LIMIT" default:"1048576"`
	TextFrames     bool     `envconfig:"WS_TEXT_FRAMES" default:"false"`
	AllowedOrigins []string `envconfig:"WS_ALLOWED_ORIGINS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration. The global limit caps
// all clients together and is off while GlobalRequestsPerSecond is zero.
type RateLimitConfig struct {
	RequestsPerSecond       int  `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst                   int  `envconfig:"RATE_LIMIT_BURST" default:"20"`
	GlobalRequestsPerSecond int  `envconfig:"RATE_LIMIT_GLOBAL_RPS" default:"0"`
	GlobalBurst             int  `envconfig:"RATE_LIMIT_GLOBAL_BURST" default:"0"`
	Enabled                 bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3000",
			Host:            "0.0.0.0",
			StaticDir:       "public",
			ShutdownTimeout: 10 * time.Second,
		},
		Terminal: TerminalConfig{
			Shell:        "bash",
			Name:         "xterm-color",
			Cols:         80,
			Rows:         24,
			DrainTimeout: time.Second,
			KillTimeout:  2 * time.Second,
		},
		WebSocket: WebSocketConfig{
			Path:      "/term",
			ReadLimit: 1 << 20,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
			Enabled:           true,
		},
	}
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("invalid config: PORT must not be empty")
	}
	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		return fmt.Errorf("invalid config: TERM_PATH %q must start with /", c.WebSocket.Path)
	}
	if c.Terminal.Shell == "" {
		return fmt.Errorf("invalid config: SHELL must not be empty")
	}
	if c.Terminal.Cols <= 0 || c.Terminal.Rows <= 0 {
		return fmt.Errorf("invalid config: terminal size %dx%d must be positive", c.Terminal.Cols, c.Terminal.Rows)
	}
	if c.WebSocket.ReadLimit <= 0 {
		return fmt.Errorf("invalid config: WS_READ_LIMIT must be positive")
	}
	if c.RateLimit.GlobalRequestsPerSecond < 0 || c.RateLimit.GlobalBurst < 0 {
		return fmt.Errorf("invalid config: global rate limit must not be negative")
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}
