package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"
)

const (
	DefaultCols     = 80
	DefaultRows     = 24
	DefaultTermName = "xterm-color"

	// MaxDimension is the largest size a pty winsize field can hold.
	MaxDimension = 65535

	defaultKillTimeout = 2 * time.Second
)

// Options configures Spawn.
type Options struct {
	Cols int
	Rows int

	// Dir is the working directory; empty means the current directory.
	Dir string

	// Env is the child's environment; nil inherits os.Environ().
	Env []string

	// TermName is exported to the child as TERM.
	TermName string

	// KillTimeout bounds how long Terminate waits after SIGHUP before
	// sending SIGKILL.
	KillTimeout time.Duration

	Logger *zap.Logger
}

// Process is a child process bound to a pseudo-terminal.
type Process struct {
	cmd         *exec.Cmd
	ptmx        *os.File
	logger      *zap.Logger
	killTimeout time.Duration

	mu   sync.RWMutex
	cols int
	rows int
	dead bool

	done    chan struct{}
	exitErr error

	terminateOnce sync.Once
}

// ValidDimensions reports whether cols x rows fits a pty window.
func ValidDimensions(cols, rows int) bool {
	return cols > 0 && rows > 0 && cols <= MaxDimension && rows <= MaxDimension
}

// Spawn starts command with args on a new pty.
func Spawn(command string, args []string, opts Options) (*Process, error) {
	if command == "" {
		return nil, &SpawnError{Command: command, Args: args, Err: errors.New("empty command")}
	}

	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = DefaultCols
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	if !ValidDimensions(cols, rows) {
		return nil, &SpawnError{Command: command, Args: args,
			Err: fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, cols, rows)}
	}

	termName := opts.TermName
	if termName == "" {
		termName = DefaultTermName
	}

	env := opts.Env
	if env == nil {
		env = os.Environ()
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	killTimeout := opts.KillTimeout
	if killTimeout <= 0 {
		killTimeout = defaultKillTimeout
	}

	cmd := exec.Command(command, args...)
	cmd.Dir = opts.Dir
	// exec keeps the last duplicate, so this overrides an inherited TERM
	cmd.Env = append(slices.Clone(env), "TERM="+termName)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	})
	if err != nil {
		return nil, &SpawnError{Command: command, Args: args, Err: err}
	}

	p := &Process{
		cmd:         cmd,
		ptmx:        ptmx,
		logger:      logger.With(zap.Int("pid", cmd.Process.Pid)),
		killTimeout: killTimeout,
		cols:        cols,
		rows:        rows,
		done:        make(chan struct{}),
	}

	go p.wait()

	p.logger.Debug("process started",
		zap.String("command", command),
		zap.Int("cols", cols),
		zap.Int("rows", rows),
	)

	return p, nil
}

// wait reaps the child. The pty master stays open so output the child wrote
// before exiting can still be read; Terminate releases it.
func (p *Process) wait() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.dead = true
	p.exitErr = err
	p.mu.Unlock()

	close(p.done)

	p.logger.Debug("process exited", zap.Error(err))
}

// Read reads shell output. EOF is reported once the child side is gone.
func (p *Process) Read(b []byte) (int, error) {
	n, err := p.ptmx.Read(b)
	if err != nil && (errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)) {
		err = io.EOF
	}
	return n, err
}

// Write delivers input to the shell.
func (p *Process) Write(b []byte) (int, error) {
	if p.isDead() {
		return 0, fmt.Errorf("write: %w", ErrTerminated)
	}

	n, err := p.ptmx.Write(b)
	if err != nil {
		if p.isDead() || errors.Is(err, os.ErrClosed) || errors.Is(err, syscall.EIO) {
			return n, fmt.Errorf("write: %w", ErrTerminated)
		}
		return n, fmt.Errorf("terminal: write: %w", err)
	}
	return n, nil
}

// Resize changes the window size seen by the child.
func (p *Process) Resize(cols, rows int) error {
	if !ValidDimensions(cols, rows) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, cols, rows)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dead {
		return fmt.Errorf("resize: %w", ErrTerminated)
	}

	if err := pty.Setsize(p.ptmx, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	}); err != nil {
		return fmt.Errorf("terminal: resize: %w", err)
	}

	p.cols = cols
	p.rows = rows
	return nil
}

// Size returns the current window size.
func (p *Process) Size() (cols, rows int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cols, p.rows
}

// Pid returns the child's process ID.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed when the child has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns the child's exit error. Only meaningful after Done is closed.
func (p *Process) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Terminate stops the child and releases the pty. It is safe to call any
// number of times, including after the child exited on its own, and never
// returns an error.
func (p *Process) Terminate() error {
	p.terminateOnce.Do(func() {
		p.mu.Lock()
		p.dead = true
		p.mu.Unlock()

		select {
		case <-p.done:
		default:
			if err := signalGroup(p.cmd.Process, syscall.SIGHUP); err != nil {
				p.logger.Debug("hangup failed", zap.Error(err))
			}
			go p.escalate()
		}

		if err := p.ptmx.Close(); err != nil {
			p.logger.Debug("pty close failed", zap.Error(err))
		}
	})
	return nil
}

// escalate kills the child if it ignored the hangup.
func (p *Process) escalate() {
	timer := time.NewTimer(p.killTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		p.logger.Warn("process ignored hangup, killing", zap.Duration("after", p.killTimeout))
		if err := signalGroup(p.cmd.Process, syscall.SIGKILL); err != nil {
			p.logger.Debug("kill failed", zap.Error(err))
		}
	}
}

func (p *Process) isDead() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dead
}
