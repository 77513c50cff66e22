package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cascadeweb/cascade/pkg/component"
	"github.com/cascadeweb/cascade/pkg/ports"
	"github.com/cascadeweb/cascade/pkg/session"
	"github.com/cascadeweb/cascade/pkg/tasklet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]ports.SessionRecord
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, record ports.SessionRecord, ttl time.Duration) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]ports.SessionRecord)
	}
	s.data[record.ID] = record
	return nil
}

func (s *SlowStore) Load(ctx context.Context, id string) (ports.SessionRecord, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.data[id]; ok {
		return record, nil
	}
	return ports.SessionRecord{}, ports.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func newHome() *component.Component {
	return component.Wrap("home")
}

func TestManager_LoadOrStartAtomicCreation(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store, newHome)
	ctx := context.Background()
	id := "atomic-init"

	var created atomic.Int32
	var wg sync.WaitGroup
	// Launch 2 routines trying to init the same session
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, fresh, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, sess)
			if fresh {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load(), "only one routine creates the session")
	assert.NotNil(t, manager.Get(id))
	assert.Equal(t, 1, manager.Len())
}

func TestManager_LoadOrStartRefreshesLastSeen(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store, newHome)
	ctx := context.Background()

	sess, fresh, err := manager.LoadOrStart(ctx, "visitor")
	require.NoError(t, err)
	require.True(t, fresh)
	first := sess.LastSeen()

	time.Sleep(20 * time.Millisecond)

	again, fresh, err := manager.LoadOrStart(ctx, "visitor")
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Same(t, sess, again, "the live tree survives between requests")
	assert.True(t, again.LastSeen().After(first))

	record, err := store.Load(ctx, "visitor")
	require.NoError(t, err)
	assert.Equal(t, again.LastSeen(), record.LastSeen)
}

func TestManager_DiscardCancelsSession(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store, newHome)
	ctx := context.Background()

	sess, _, err := manager.LoadOrStart(ctx, "leaving")
	require.NoError(t, err)

	require.NoError(t, manager.Discard(ctx, "leaving"))

	assert.Nil(t, manager.Get("leaving"))
	assert.ErrorIs(t, sess.Context().Err(), context.Canceled)

	_, err = store.Load(ctx, "leaving")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestManager_ExpireReleasesParkedCalls(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store, newHome)
	ctx := context.Background()

	sess, _, err := manager.LoadOrStart(ctx, "abandoned")
	require.NoError(t, err)

	// A task parked on a call the user never answers.
	errs := make(chan error, 1)
	tasklet.Spawn(sess.Context(), func(tctx context.Context) {
		_, err := sess.Root().Call(tctx, "dialog")
		errs <- err
	})

	// The record expires out of the store; the sweep notices.
	require.NoError(t, store.Delete(ctx, "abandoned"))
	require.NoError(t, manager.Expire(ctx))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("parked call was not released")
	}
	assert.Equal(t, 0, manager.Len())
}

func TestManager_ExpireKeepsLiveSessions(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store, newHome)
	ctx := context.Background()

	sess, _, err := manager.LoadOrStart(ctx, "active")
	require.NoError(t, err)

	require.NoError(t, manager.Expire(ctx))

	assert.Same(t, sess, manager.Get("active"))
	assert.NoError(t, sess.Context().Err())
}
