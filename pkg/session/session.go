package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cascadeweb/cascade/pkg/component"
)

// Action is a callback registered during rendering and triggered by a
// later request.
type Action func(ctx context.Context) error

// Session is one live user session: the component tree, the callbacks
// registered by the last rendering and the context every task of the
// session runs under.
//
// The tree itself is process-local. What survives in the record store is
// only the session identity; a session lost to a restart starts over
// from a fresh root.
type Session struct {
	id   string
	root *component.Component

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	actions   map[string]Action
	seq       int
	createdAt time.Time
	lastSeen  time.Time
}

func newSession(id string, root *component.Component, createdAt time.Time) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:        id,
		root:      root,
		ctx:       ctx,
		cancel:    cancel,
		actions:   make(map[string]Action),
		createdAt: createdAt,
		lastSeen:  createdAt,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Root returns the root component of the session tree.
func (s *Session) Root() *component.Component { return s.root }

// Context returns the session context. Tasks spawned on behalf of the
// session run under it, not under a request context, so a call parked in
// one request can still be answered by a later one. Closing the session
// cancels it, releasing whatever is still parked.
func (s *Session) Context() context.Context { return s.ctx }

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastSeen returns when the session last handled a request.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// RegisterAction stores fn under a fresh identifier and returns it.
func (s *Session) RegisterAction(fn func(ctx context.Context) error) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := fmt.Sprintf("%s.%d", s.id, s.seq)
	s.actions[id] = Action(fn)
	return id
}

// Action looks up a registered callback by identifier. The second return
// reports whether the identifier is current; identifiers from a previous
// rendering are stale and yield false.
func (s *Session) Action(id string) (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn, ok := s.actions[id]
	return fn, ok
}

// ClearActions drops every registered callback. Called before each
// rendering so only the links of the current page stay valid.
func (s *Session) ClearActions() {
	s.mu.Lock()
	s.actions = make(map[string]Action)
	s.mu.Unlock()
}

// Close cancels the session context, releasing every parked task.
func (s *Session) Close() {
	s.cancel()
}
