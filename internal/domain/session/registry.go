package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

// ErrRegistryClosed is returned by Acquire once CloseAll has started.
var ErrRegistryClosed = errors.New("session: registry closed")

// ErrDuplicateSession is returned when a session ID is acquired twice.
var ErrDuplicateSession = errors.New("session: duplicate session id")

type entry struct {
	session  *Session
	released chan struct{}
}

// Registry holds the sessions that are currently live. It is the only
// cross-session state; the sessions themselves share nothing.
type Registry struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*entry
	closed   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[id.SessionID]*entry),
	}
}

// Acquire registers s until the returned release func is called. Release is
// idempotent.
func (r *Registry) Acquire(s *Session) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	if _, exists := r.sessions[s.ID()]; exists {
		return nil, ErrDuplicateSession
	}

	e := &entry{session: s, released: make(chan struct{})}
	r.sessions[s.ID()] = e

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.sessions, s.ID())
			r.mu.Unlock()
			close(e.released)
		})
	}, nil
}

// Get returns a live session by ID.
func (r *Registry) Get(sessionID id.SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns a snapshot of every live session, oldest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.sessions))
	for _, e := range r.sessions {
		infos = append(infos, e.session.Info())
	}
	r.mu.RUnlock()

	// ULIDs sort by creation time
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// CloseAll stops accepting sessions, stops every live one and waits for
// them to be released or for ctx to expire.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	entries := make([]*entry, 0, len(r.sessions))
	for _, e := range r.sessions {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.session.Stop()
	}

	for _, e := range entries {
		select {
		case <-e.released:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
