// Package memory provides an in-process session record store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cascadeweb/cascade/pkg/ports"
)

type entry struct {
	record   ports.SessionRecord
	deadline time.Time // zero means no expiration
}

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]entry
	mu   sync.RWMutex

	now func() time.Time
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, record ports.SessionRecord, ttl time.Duration) error {
	var deadline time.Time
	if ttl > 0 {
		deadline = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.ID] = entry{record: record, deadline: deadline}
	return nil
}

// Load retrieves the record from memory. Expired records count as absent.
func (s *Store) Load(ctx context.Context, id string) (ports.SessionRecord, error) {
	s.mu.RLock()
	e, ok := s.data[id]
	s.mu.RUnlock()

	if !ok || s.expired(e) {
		return ports.SessionRecord{}, ports.ErrSessionNotFound
	}
	return e.record, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns active sessions, pruning expired records on the way.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]string, 0, len(s.data))
	for id, e := range s.data {
		if s.expired(e) {
			delete(s.data, id)
			continue
		}
		sessions = append(sessions, id)
	}
	return sessions, nil
}

func (s *Store) expired(e entry) bool {
	return !e.deadline.IsZero() && s.now().After(e.deadline)
}
