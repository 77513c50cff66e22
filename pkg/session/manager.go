package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/cascadeweb/cascade/internal/logging"
	"github.com/cascadeweb/cascade/pkg/component"
	"github.com/cascadeweb/cascade/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
//
// Live sessions are kept in process memory; the store only carries the
// session records the expiry sweep works from.
type Manager struct {
	store   ports.SessionStore
	newRoot func() *component.Component
	ttl     time.Duration

	mu    sync.Mutex            // Global lock for the maps
	locks map[string]*lockEntry // Map of active locks
	live  map[string]*Session   // Sessions with a live component tree

	locker ports.DistributedLocker // Optional distributed locker
	logger *slog.Logger            // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithTTL sets how long an idle session stays alive. Zero means forever.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// NewManager creates a new session manager. New sessions get their root
// component from newRoot; records are persisted in store.
func NewManager(store ports.SessionStore, newRoot func() *component.Component, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		newRoot: newRoot,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*Session),
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Get returns the live session, or nil if none exists in this process.
func (m *Manager) Get(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[sessionID]
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// LoadOrStart returns the live session for sessionID, starting a fresh
// one if the ID is unknown or its tree did not survive a restart. The
// second return reports whether a new session was created. The record's
// last-seen timestamp is refreshed either way.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*Session, bool, error) {
	var sess *Session
	var created bool

	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		now := time.Now().UTC()

		m.mu.Lock()
		sess = m.live[sessionID]
		m.mu.Unlock()

		record, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil && sess != nil:
			// Known session with a live tree.
		case errors.Is(err, ports.ErrSessionNotFound), err == nil && sess == nil:
			// Unknown ID, expired record, or a record whose tree was
			// lost to a restart: start over.
			if sess != nil {
				sess.Close()
			}
			created = true
			record = ports.SessionRecord{ID: sessionID, CreatedAt: now}
			sess = newSession(sessionID, m.newRoot(), now)

			m.mu.Lock()
			m.live[sessionID] = sess
			m.mu.Unlock()
		default:
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		sess.touch(now)
		record.LastSeen = now
		if err := m.store.Save(ctx, record, m.ttl); err != nil {
			return fmt.Errorf("failed to save session record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return sess, created, nil
}

// Discard removes the session, cancelling its context and deleting its
// record.
func (m *Manager) Discard(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		sess := m.live[sessionID]
		delete(m.live, sessionID)
		m.mu.Unlock()

		if sess != nil {
			sess.Close()
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying record store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Expire closes every live session whose record is gone from the store.
// Closing cancels the session context, so calls parked in abandoned
// sessions get released instead of leaking.
func (m *Manager) Expire(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		err := m.WithLock(ctx, id, func(ctx context.Context) error {
			_, err := m.store.Load(ctx, id)
			if err == nil {
				return nil
			}
			if !errors.Is(err, ports.ErrSessionNotFound) {
				return err
			}

			m.mu.Lock()
			sess := m.live[id]
			delete(m.live, id)
			m.mu.Unlock()

			if sess != nil {
				m.logger.Info("session expired", "session_id", id)
				sess.Close()
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ExpireLoop runs Expire every interval until ctx is done.
func (m *Manager) ExpireLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Expire(ctx); err != nil {
				m.logger.Warn("session expiry sweep failed", "err", err)
			}
		}
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		// TODO: Configure TTL?
		unlock, err := m.locker.Lock(ctx, sessionID, 30*time.Second)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
