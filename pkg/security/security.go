// Package security holds the request-scoped security context: the acting
// user and the security manager evaluating permissions. The scope travels
// on the request context, never in process-wide state, so concurrent
// request tasks cannot observe each other's user.
package security

import (
	"context"
	"fmt"
	"sync"
)

// User is the acting principal created by the security manager.
type User struct {
	ID          string
	Expired     bool
	Credentials map[string]any
}

// Denial explains a refused permission check.
type Denial struct {
	Reason string
}

func (d *Denial) Error() string {
	if d.Reason == "" {
		return "access forbidden"
	}
	return d.Reason
}

// Deny builds a denial with a formatted reason.
func Deny(format string, args ...any) *Denial {
	return &Denial{Reason: fmt.Sprintf(format, args...)}
}

// Manager is the pluggable permission policy. HasPermission returns nil
// when access is granted and a *Denial otherwise. Denies shapes the
// denial surfaced to the host when a check fails.
type Manager interface {
	HasPermission(ctx context.Context, user *User, perm any, subject any) error
	Denies(denial *Denial) error
}

// Scope is the mutable per-request security state.
type Scope struct {
	mu      sync.Mutex
	user    *User
	manager Manager
}

// NewScope creates a scope with the given manager and no user.
func NewScope(manager Manager) *Scope {
	return &Scope{manager: manager}
}

type scopeKey struct{}

// WithScope attaches the scope to the context.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the scope attached to ctx, or nil.
func FromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// GetUser returns the current user, or nil when absent or expired.
func GetUser(ctx context.Context) *User {
	s := FromContext(ctx)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.Expired {
		return nil
	}
	return s.user
}

// SetUser changes the current user.
func SetUser(ctx context.Context, user *User) {
	if s := FromContext(ctx); s != nil {
		s.mu.Lock()
		s.user = user
		s.mu.Unlock()
	}
}

// GetManager returns the current security manager, or nil.
func GetManager(ctx context.Context) Manager {
	s := FromContext(ctx)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager
}

// SetManager changes the security manager.
func SetManager(ctx context.Context, manager Manager) {
	if s := FromContext(ctx); s != nil {
		s.mu.Lock()
		s.manager = manager
		s.mu.Unlock()
	}
}

// HasPermissions checks that the current user has perm on subject.
// Without a manager in scope, access is granted.
func HasPermissions(ctx context.Context, perm any, subject any) error {
	m := GetManager(ctx)
	if m == nil {
		return nil
	}
	return m.HasPermission(ctx, GetUser(ctx), perm, subject)
}

// CheckPermissions controls that the current user has perm on subject
// and lets the manager act on the denial otherwise.
func CheckPermissions(ctx context.Context, perm any, subject any) error {
	err := HasPermissions(ctx, perm, subject)
	if err == nil {
		return nil
	}

	denial, ok := err.(*Denial)
	if !ok {
		denial = &Denial{Reason: err.Error()}
	}
	if m := GetManager(ctx); m != nil {
		return m.Denies(denial)
	}
	return denial
}

// Wrap guards an action with a permission check: the check runs against
// the acting user and subject before the action is invoked. A nil perm
// leaves the action unguarded. The wrapper composes with the task
// spawning done when an action is dispatched.
func Wrap(action func(ctx context.Context) error, perm any, subject any) func(ctx context.Context) error {
	if perm == nil {
		return action
	}
	return func(ctx context.Context) error {
		if err := CheckPermissions(ctx, perm, subject); err != nil {
			return err
		}
		return action(ctx)
	}
}
