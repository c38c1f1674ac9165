package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/webterm/internal/terminal"
)

var errPeerGone = errors.New("peer went away")

const fakePid = 4242

// fakeTerminal is an in-memory Terminal. Output written with emit is read
// by the session; exit simulates the shell ending on its own.
type fakeTerminal struct {
	outR *io.PipeReader
	outW *io.PipeWriter

	mu      sync.Mutex
	writes  [][]byte
	cols    int
	rows    int
	dead    bool
	resizes int

	terminateCalls atomic.Int32
	done           chan struct{}
	doneOnce       sync.Once
}

func newFakeTerminal() *fakeTerminal {
	r, w := io.Pipe()
	return &fakeTerminal{
		outR: r,
		outW: w,
		cols: terminal.DefaultCols,
		rows: terminal.DefaultRows,
		done: make(chan struct{}),
	}
}

func (f *fakeTerminal) Read(p []byte) (int, error) { return f.outR.Read(p) }

func (f *fakeTerminal) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dead {
		return 0, fmt.Errorf("write: %w", terminal.ErrTerminated)
	}
	f.writes = append(f.writes, bytes.Clone(p))
	return len(p), nil
}

func (f *fakeTerminal) Resize(cols, rows int) error {
	if !terminal.ValidDimensions(cols, rows) {
		return terminal.ErrInvalidDimensions
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dead {
		return terminal.ErrTerminated
	}
	f.cols, f.rows = cols, rows
	f.resizes++
	return nil
}

func (f *fakeTerminal) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cols, f.rows
}

func (f *fakeTerminal) Terminate() error {
	f.terminateCalls.Add(1)
	f.exit()
	return nil
}

func (f *fakeTerminal) Done() <-chan struct{} { return f.done }

func (f *fakeTerminal) Pid() int { return fakePid }

// emit hands data to the session; it returns once the session has read it.
func (f *fakeTerminal) emit(data []byte) {
	_, _ = f.outW.Write(data)
}

func (f *fakeTerminal) exit() {
	f.doneOnce.Do(func() {
		f.mu.Lock()
		f.dead = true
		f.mu.Unlock()
		_ = f.outW.Close()
		close(f.done)
	})
}

func (f *fakeTerminal) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

func (f *fakeTerminal) resizeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resizes
}

// fakeEndpoint is an in-memory Endpoint driven through inbound/disconnect.
type fakeEndpoint struct {
	inbound chan []byte

	closed     chan struct{}
	closeOnce  sync.Once
	closeCalls atomic.Int32
	flushes    atomic.Int32

	mu      sync.Mutex
	sent    bytes.Buffer
	frames  int
	sendErr error
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (f *fakeEndpoint) Send(p []byte) error {
	select {
	case <-f.closed:
		return fmt.Errorf("endpoint closed: %w", ErrSend)
	default:
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent.Write(p)
	f.frames++
	return nil
}

func (f *fakeEndpoint) Receive() ([]byte, error) {
	select {
	case frame, ok := <-f.inbound:
		if !ok {
			return nil, errPeerGone
		}
		return frame, nil
	case <-f.closed:
		return nil, errors.New("endpoint closed")
	}
}

func (f *fakeEndpoint) Close() error {
	f.closeCalls.Add(1)
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeEndpoint) Flush() error {
	f.flushes.Add(1)
	return nil
}

func (f *fakeEndpoint) RemoteAddr() string { return "192.0.2.1:5555" }

func (f *fakeEndpoint) disconnect() { close(f.inbound) }

func (f *fakeEndpoint) failSends(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *fakeEndpoint) sentBytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Clone(f.sent.Bytes())
}

// countingRecorder records Recorder calls.
type countingRecorder struct {
	mu          sync.Mutex
	started     int
	spawnFailed int
	closed      map[string]int
	bytes       map[string]int
	messages    map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		closed:   make(map[string]int),
		bytes:    make(map[string]int),
		messages: make(map[string]int),
	}
}

func (r *countingRecorder) SessionStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *countingRecorder) SessionSpawnFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawnFailed++
}

func (r *countingRecorder) SessionClosed(reason string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed[reason]++
}

func (r *countingRecorder) BytesRelayed(direction string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bytes[direction] += n
}

func (r *countingRecorder) MessageReceived(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[kind]++
}
