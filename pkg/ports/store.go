package ports

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a session record does not exist in
// the store, either because it never did or because it expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionRecord is the persisted part of a session. The live component
// tree only exists in process memory; the record carries the identity
// and the timestamps the expiry sweep works from.
type SessionRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// SessionStore persists session records.
type SessionStore interface {
	// Save writes the record, creating or replacing it. A zero ttl means
	// the record never expires on its own.
	Save(ctx context.Context, record SessionRecord, ttl time.Duration) error

	// Load retrieves a record by session ID.
	// Returns ErrSessionNotFound if it does not exist.
	Load(ctx context.Context, id string) (SessionRecord, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of every live record.
	List(ctx context.Context) ([]string, error)
}
