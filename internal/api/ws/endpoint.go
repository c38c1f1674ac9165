package ws

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/GriffinCanCode/webterm/internal/domain/session"
)

const closeGracePeriod = time.Second

var replacementChar = []byte(string(utf8.RuneError))

var (
	_ session.Endpoint = (*Endpoint)(nil)
	_ session.Flusher  = (*Endpoint)(nil)
)

// MessageObserver counts outbound frames. monitoring.Metrics implements it.
type MessageObserver interface {
	RecordWSMessage(direction, msgType string)
}

// EndpointOptions configures an Endpoint.
type EndpointOptions struct {
	// TextFrames sends shell output as text frames instead of binary. A
	// character split across two reads is held back until it is complete,
	// and invalid bytes become U+FFFD.
	TextFrames bool

	// ReadLimit caps inbound frame size; zero leaves gorilla's default.
	ReadLimit int64

	// WriteTimeout bounds a single Send; zero blocks until the peer reads.
	WriteTimeout time.Duration

	Observer MessageObserver
}

// Endpoint adapts a gorilla connection to session.Endpoint.
type Endpoint struct {
	conn         *websocket.Conn
	messageType  int
	frameLabel   string
	writeTimeout time.Duration
	observer     MessageObserver

	writeMu   sync.Mutex
	pending   []byte // incomplete trailing character, text mode only
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewEndpoint wraps conn. The Endpoint owns conn from here on.
func NewEndpoint(conn *websocket.Conn, opts EndpointOptions) *Endpoint {
	e := &Endpoint{
		conn:         conn,
		messageType:  websocket.BinaryMessage,
		frameLabel:   "binary",
		writeTimeout: opts.WriteTimeout,
		observer:     opts.Observer,
	}
	if opts.TextFrames {
		e.messageType = websocket.TextMessage
		e.frameLabel = "text"
	}
	if opts.ReadLimit > 0 {
		conn.SetReadLimit(opts.ReadLimit)
	}
	return e
}

// Send writes p as one frame. gorilla copies p before returning.
func (e *Endpoint) Send(p []byte) error {
	if e.closed.Load() {
		return fmt.Errorf("%w: endpoint closed", session.ErrSend)
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.messageType != websocket.TextMessage {
		return e.write(p)
	}

	data := p
	if len(e.pending) > 0 {
		data = append(e.pending, p...)
	}
	head, tail := splitIncomplete(data)
	e.pending = append([]byte(nil), tail...)
	if len(head) == 0 {
		return nil
	}
	return e.write(bytes.ToValidUTF8(head, replacementChar))
}

// Flush sends a held-back partial character as U+FFFD. The session calls it
// once the shell has no more output.
func (e *Endpoint) Flush() error {
	if e.closed.Load() {
		return fmt.Errorf("%w: endpoint closed", session.ErrSend)
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if len(e.pending) == 0 {
		return nil
	}
	e.pending = nil
	return e.write(replacementChar)
}

// write sends one frame. The caller holds writeMu.
func (e *Endpoint) write(p []byte) error {
	if e.writeTimeout > 0 {
		if err := e.conn.SetWriteDeadline(time.Now().Add(e.writeTimeout)); err != nil {
			return fmt.Errorf("%w: %v", session.ErrSend, err)
		}
	}
	if err := e.conn.WriteMessage(e.messageType, p); err != nil {
		return fmt.Errorf("%w: %v", session.ErrSend, err)
	}

	if e.observer != nil {
		e.observer.RecordWSMessage("outbound", e.frameLabel)
	}
	return nil
}

// splitIncomplete cuts b before a trailing UTF-8 sequence that needs more
// bytes. Invalid bytes count as complete.
func splitIncomplete(b []byte) (head, tail []byte) {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		start := len(b) - i
		if !utf8.RuneStart(b[start]) {
			continue
		}
		if !utf8.FullRune(b[start:]) {
			return b[:start], b[start:]
		}
		break
	}
	return b, nil
}

// Receive returns the next data frame, text or binary alike.
func (e *Endpoint) Receive() ([]byte, error) {
	_, data, err := e.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close sends a normal closure and closes the connection.
func (e *Endpoint) Close() error {
	return e.CloseWithCode(websocket.CloseNormalClosure, "")
}

// CloseWithCode sends a close frame with code and closes the connection. Only
// the first call has any effect.
func (e *Endpoint) CloseWithCode(code int, text string) error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)

		// WriteControl is safe alongside a blocked Send; conn.Close then
		// unblocks it. The peer may already be gone, so its error is moot.
		msg := websocket.FormatCloseMessage(code, text)
		_ = e.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		e.closeErr = e.conn.Close()
	})
	return e.closeErr
}

// RemoteAddr returns the peer's network address.
func (e *Endpoint) RemoteAddr() string {
	return e.conn.RemoteAddr().String()
}
