package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webterm/internal/domain/session"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/config"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/webterm/internal/shared/id"
	"github.com/GriffinCanCode/webterm/internal/terminal"
)

const bufferSize = 4096

// Options configures Handler. OptionsFromConfig builds it from the
// environment-backed config.
type Options struct {
	Shell        string
	Args         []string
	TermName     string
	Cols         int
	Rows         int
	Dir          string
	KillTimeout  time.Duration
	DrainTimeout time.Duration

	ReadLimit      int64
	TextFrames     bool
	AllowedOrigins []string
}

// OptionsFromConfig maps the terminal and WebSocket sections of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Shell:          cfg.Terminal.Shell,
		TermName:       cfg.Terminal.Name,
		Cols:           cfg.Terminal.Cols,
		Rows:           cfg.Terminal.Rows,
		Dir:            cfg.Terminal.WorkingDir,
		KillTimeout:    cfg.Terminal.KillTimeout,
		DrainTimeout:   cfg.Terminal.DrainTimeout,
		ReadLimit:      cfg.WebSocket.ReadLimit,
		TextFrames:     cfg.WebSocket.TextFrames,
		AllowedOrigins: cfg.WebSocket.AllowedOrigins,
	}
}

// Handler accepts WebSocket connections and runs one terminal session per
// connection.
type Handler struct {
	opts     Options
	registry *session.Registry
	metrics  *monitoring.Metrics
	logger   *logging.Logger
	upgrader websocket.Upgrader
	spawner  session.Spawner
}

// NewHandler creates a new WebSocket handler
func NewHandler(opts Options, registry *session.Registry, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	h := &Handler{
		opts:     opts,
		registry: registry,
		metrics:  metrics,
		logger:   logger.Named("ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  bufferSize,
		WriteBufferSize: bufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	h.spawner = session.SpawnerFunc(h.spawn)
	return h
}

// HandleConnection upgrades the request and blocks until its session ends.
func (h *Handler) HandleConnection(c *gin.Context) {
	traceField := tracing.Field(c.Request.Context())

	// the upgrade response is written on the hijacked conn, so headers set
	// on c.Writer are lost unless passed here
	var respHeader http.Header
	if traceID := tracing.GetTraceID(c.Request.Context()); traceID != "" {
		respHeader = http.Header{tracing.Header: []string{string(traceID)}}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		// Upgrade has already written the HTTP error response
		h.metrics.RecordUpgradeFailure()
		h.logger.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", c.Request.RemoteAddr),
			traceField,
			zap.Error(err),
		)
		return
	}

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	endpoint := NewEndpoint(conn, EndpointOptions{
		TextFrames: h.opts.TextFrames,
		ReadLimit:  h.opts.ReadLimit,
		Observer:   h.metrics,
	})

	sess := session.New(id.NewSessionID(), endpoint, h.spawner, session.Options{
		Logger:       h.logger.Logger.With(traceField),
		Recorder:     h.metrics,
		DrainTimeout: h.opts.DrainTimeout,
	})

	release, err := h.registry.Acquire(sess)
	if err != nil {
		h.logger.Info("refusing connection", zap.Error(err))
		_ = endpoint.CloseWithCode(websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer release()

	// shutdown reaches the session through the registry, not the request
	ctx := context.WithoutCancel(c.Request.Context())
	if err := sess.Run(ctx); err != nil {
		h.logger.Debug("session ended without starting", zap.String("session_id", sess.ID().String()), zap.Error(err))
	}
}

func (h *Handler) spawn(ctx context.Context) (session.Terminal, error) {
	start := time.Now()
	proc, err := terminal.Spawn(h.opts.Shell, h.opts.Args, terminal.Options{
		Cols:        h.opts.Cols,
		Rows:        h.opts.Rows,
		Dir:         h.opts.Dir,
		TermName:    h.opts.TermName,
		KillTimeout: h.opts.KillTimeout,
		Logger:      h.logger.Logger,
	})
	h.metrics.RecordSpawn(time.Since(start))
	if err != nil {
		return nil, err
	}
	return proc, nil
}

// checkOrigin allows everything when no origins are configured. Requests
// without an Origin header come from non-browser clients and are allowed.
func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if originAllowed(origin, h.opts.AllowedOrigins) {
		return true
	}

	h.metrics.RecordOriginRejected()
	h.logger.Warn("WebSocket origin rejected", zap.String("origin", origin))
	return false
}

// originAllowed matches origin against allowed entries, which are either a
// full origin ("https://host:port"), a bare host, or "*".
func originAllowed(origin string, allowed []string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	for _, a := range allowed {
		a = strings.TrimSpace(a)
		switch {
		case a == "*":
			return true
		case strings.Contains(a, "://"):
			if strings.EqualFold(strings.TrimRight(a, "/"), u.Scheme+"://"+u.Host) {
				return true
			}
		default:
			if strings.EqualFold(a, u.Host) || strings.EqualFold(a, u.Hostname()) {
				return true
			}
		}
	}
	return false
}
