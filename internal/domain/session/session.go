package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/webterm/internal/shared/id"
	"github.com/GriffinCanCode/webterm/internal/terminal"
)

// ErrSend wraps every failure to deliver a frame to the remote peer.
var ErrSend = errors.New("session: send failed")

const (
	defaultBufferSize      = 32 * 1024
	defaultDrainTimeout    = time.Second
	defaultTeardownTimeout = 5 * time.Second
)

// Terminal is the shell side of a session. *terminal.Process implements it.
type Terminal interface {
	io.Reader
	Write(p []byte) (int, error)
	Resize(cols, rows int) error
	Size() (cols, rows int)
	Terminate() error
	Done() <-chan struct{}
	Pid() int
}

// Endpoint is the connection side of a session.
type Endpoint interface {
	// Send delivers one frame. It must not retain p.
	Send(p []byte) error
	// Receive blocks for the next inbound frame and fails once the peer
	// is gone.
	Receive() ([]byte, error)
	// Close is idempotent.
	Close() error
	RemoteAddr() string
}

// Flusher is implemented by endpoints that hold back partial output. Flush
// is called once when the shell output ends.
type Flusher interface {
	Flush() error
}

// Spawner starts the Terminal for a new session.
type Spawner interface {
	Spawn(ctx context.Context) (Terminal, error)
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(ctx context.Context) (Terminal, error)

func (f SpawnerFunc) Spawn(ctx context.Context) (Terminal, error) { return f(ctx) }

// Recorder receives session lifecycle and relay events. monitoring.Metrics
// implements it.
type Recorder interface {
	SessionStarted()
	SessionSpawnFailed()
	SessionClosed(reason string, duration time.Duration)
	BytesRelayed(direction string, n int)
	MessageReceived(kind string)
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted()                     {}
func (nopRecorder) SessionSpawnFailed()                 {}
func (nopRecorder) SessionClosed(string, time.Duration) {}
func (nopRecorder) BytesRelayed(string, int)            {}
func (nopRecorder) MessageReceived(string)              {}

// Relay directions reported to Recorder.BytesRelayed.
const (
	DirectionOutput = "output" // shell to peer
	DirectionInput  = "input"  // peer to shell
)

// Reason records why a session left Active.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonEndpointClosed Reason = "endpoint_closed"
	ReasonSendFailed     Reason = "send_failed"
	ReasonProcessExited  Reason = "process_exited"
	ReasonShutdown       Reason = "shutdown"
)

// Options tunes a Session. Zero values select defaults.
type Options struct {
	Logger   *zap.Logger
	Recorder Recorder

	// DrainTimeout bounds how long shell output is still relayed after the
	// shell exits.
	DrainTimeout time.Duration

	// TeardownTimeout bounds how long Run waits for both relays to stop
	// after the resources are released.
	TeardownTimeout time.Duration

	// BufferSize is the read size for shell output.
	BufferSize int
}

// Info is a point-in-time view of a session.
type Info struct {
	ID         id.SessionID `json:"id"`
	RemoteAddr string       `json:"remote_addr"`
	State      string       `json:"state"`
	Pid        int          `json:"pid,omitempty"`
	Cols       int          `json:"cols"`
	Rows       int          `json:"rows"`
	CreatedAt  time.Time    `json:"created_at"`
	StartedAt  time.Time    `json:"started_at"`
	BytesIn    int64        `json:"bytes_in"`
	BytesOut   int64        `json:"bytes_out"`
}

// Session binds one Endpoint to one Terminal.
type Session struct {
	id       id.SessionID
	endpoint Endpoint
	spawner  Spawner
	logger   *zap.Logger
	recorder Recorder

	drainTimeout    time.Duration
	teardownTimeout time.Duration
	bufferSize      int

	mu        sync.RWMutex
	state     State
	term      Terminal
	startedAt time.Time
	reason    Reason

	bytesIn  atomic.Int64
	bytesOut atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
	ran      atomic.Bool
}

// New creates a session in the Starting state. Nothing happens until Run.
func New(sessionID id.SessionID, endpoint Endpoint, spawner Spawner, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var recorder Recorder = nopRecorder{}
	if opts.Recorder != nil {
		recorder = opts.Recorder
	}

	s := &Session{
		id:              sessionID,
		endpoint:        endpoint,
		spawner:         spawner,
		logger:          logger.With(zap.String("session_id", sessionID.String())),
		recorder:        recorder,
		drainTimeout:    opts.DrainTimeout,
		teardownTimeout: opts.TeardownTimeout,
		bufferSize:      opts.BufferSize,
		state:           StateStarting,
		stop:            make(chan struct{}),
	}

	if s.drainTimeout <= 0 {
		s.drainTimeout = defaultDrainTimeout
	}
	if s.teardownTimeout <= 0 {
		s.teardownTimeout = defaultTeardownTimeout
	}
	if s.bufferSize <= 0 {
		s.bufferSize = defaultBufferSize
	}

	return s
}

// ID returns the session identifier.
func (s *Session) ID() id.SessionID {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Reason returns why the session left Active, or ReasonNone.
func (s *Session) Reason() Reason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Stop asks a running session to shut down. Safe to call at any time and
// more than once; a session stopped before Run closes as soon as it starts.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	s.mu.RLock()
	state, term, startedAt := s.state, s.term, s.startedAt
	s.mu.RUnlock()

	info := Info{
		ID:         s.id,
		RemoteAddr: s.endpoint.RemoteAddr(),
		State:      state.String(),
		StartedAt:  startedAt,
		BytesIn:    s.bytesIn.Load(),
		BytesOut:   s.bytesOut.Load(),
	}
	if created, err := id.Timestamp(s.id.String()); err == nil {
		info.CreatedAt = created
	}
	if term != nil {
		info.Pid = term.Pid()
		info.Cols, info.Rows = term.Size()
	}
	return info
}

// Run spawns the shell and relays until either side ends, then tears both
// down. It returns an error only when the shell could not be spawned; a
// session may only be run once.
func (s *Session) Run(ctx context.Context) error {
	if !s.ran.CompareAndSwap(false, true) {
		return fmt.Errorf("session %s: already run", s.id)
	}

	term, err := s.spawner.Spawn(ctx)
	if err != nil {
		s.logger.Error("spawn failed, closing connection", zap.Error(err))
		s.recorder.SessionSpawnFailed()
		if cerr := s.endpoint.Close(); cerr != nil {
			s.logger.Debug("endpoint close failed", zap.Error(cerr))
		}
		s.setState(StateClosed)
		return err
	}

	started := time.Now()
	s.mu.Lock()
	s.term = term
	s.startedAt = started
	s.state = StateActive
	s.mu.Unlock()

	s.recorder.SessionStarted()
	s.logger.Info("session active", zap.String("remote_addr", s.endpoint.RemoteAddr()))

	// buffered so a relay never blocks reporting after Run stopped listening
	ended := make(chan Reason, 2)
	outputDone := make(chan struct{})

	var g errgroup.Group
	g.Go(func() error {
		defer close(outputDone)
		reason, err := s.relayOutput(term)
		ended <- reason
		return err
	})
	g.Go(func() error {
		reason, err := s.relayInput(term)
		ended <- reason
		return err
	})

	var reason Reason
	select {
	case reason = <-ended:
	case <-term.Done():
		reason = ReasonProcessExited
		s.drainOutput(outputDone)
	case <-ctx.Done():
		reason = ReasonShutdown
	case <-s.stop:
		reason = ReasonShutdown
	}

	s.teardown(term, reason)
	s.awaitRelays(&g)

	duration := time.Since(started)
	s.setState(StateClosed)
	s.recorder.SessionClosed(string(reason), duration)
	s.logger.Info("session closed",
		zap.String("reason", string(reason)),
		zap.Duration("duration", duration),
		zap.Int64("bytes_in", s.bytesIn.Load()),
		zap.Int64("bytes_out", s.bytesOut.Load()),
	)

	return nil
}

// relayOutput forwards shell output to the peer until EOF or a send failure.
func (s *Session) relayOutput(term Terminal) (Reason, error) {
	buf := make([]byte, s.bufferSize)
	for {
		n, err := term.Read(buf)
		if n > 0 {
			if serr := s.endpoint.Send(buf[:n]); serr != nil {
				s.logger.Debug("send failed", zap.Error(serr))
				return ReasonSendFailed, fmt.Errorf("relay output: %w", serr)
			}
			s.bytesOut.Add(int64(n))
			s.recorder.BytesRelayed(DirectionOutput, n)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("shell read ended", zap.Error(err))
			}
			if f, ok := s.endpoint.(Flusher); ok {
				if ferr := f.Flush(); ferr != nil {
					s.logger.Debug("flush failed", zap.Error(ferr))
				}
			}
			return ReasonProcessExited, nil
		}
	}
}

// relayInput applies inbound frames, one at a time in arrival order.
func (s *Session) relayInput(term Terminal) (Reason, error) {
	for {
		frame, err := s.endpoint.Receive()
		if err != nil {
			s.logger.Debug("receive ended", zap.Error(err))
			return ReasonEndpointClosed, nil
		}

		msg := Classify(frame)
		s.recorder.MessageReceived(msg.Kind.String())

		switch msg.Kind {
		case KindResize:
			if err := term.Resize(msg.Cols, msg.Rows); err != nil {
				s.logger.Debug("resize ignored", zap.Int("cols", msg.Cols), zap.Int("rows", msg.Rows), zap.Error(err))
				continue
			}
			s.logger.Debug("resized", zap.Int("cols", msg.Cols), zap.Int("rows", msg.Rows))

		case KindMalformedControl:
			s.logger.Debug("dropped malformed control message", zap.Int("bytes", len(frame)))

		default:
			n, err := term.Write(msg.Payload)
			s.bytesIn.Add(int64(n))
			s.recorder.BytesRelayed(DirectionInput, n)
			if err != nil {
				if errors.Is(err, terminal.ErrTerminated) {
					return ReasonProcessExited, nil
				}
				s.logger.Warn("shell write failed", zap.Error(err))
			}
		}
	}
}

// drainOutput gives the output relay a bounded chance to forward what the
// shell wrote before it exited.
func (s *Session) drainOutput(outputDone <-chan struct{}) {
	timer := time.NewTimer(s.drainTimeout)
	defer timer.Stop()

	select {
	case <-outputDone:
	case <-timer.C:
		s.logger.Debug("output drain timed out", zap.Duration("timeout", s.drainTimeout))
	}
}

// teardown releases both resources exactly once.
func (s *Session) teardown(term Terminal, reason Reason) {
	s.mu.Lock()
	if s.state == StateClosing || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosing
	s.reason = reason
	s.mu.Unlock()

	s.logger.Debug("session closing", zap.String("reason", string(reason)))

	if err := term.Terminate(); err != nil {
		s.logger.Debug("terminate failed", zap.Error(err))
	}
	if err := s.endpoint.Close(); err != nil {
		s.logger.Debug("endpoint close failed", zap.Error(err))
	}
}

func (s *Session) awaitRelays(g *errgroup.Group) {
	waited := make(chan error, 1)
	go func() { waited <- g.Wait() }()

	timer := time.NewTimer(s.teardownTimeout)
	defer timer.Stop()

	select {
	case err := <-waited:
		if err != nil {
			s.logger.Debug("relay stopped with error", zap.Error(err))
		}
	case <-timer.C:
		s.logger.Warn("relays still running after teardown", zap.Duration("timeout", s.teardownTimeout))
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
