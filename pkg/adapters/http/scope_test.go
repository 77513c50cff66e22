package http

import (
	"context"
	"testing"
	"time"

	"github.com/cascadeweb/cascade/pkg/adapters/memory"
	"github.com/cascadeweb/cascade/pkg/component"
	"github.com/cascadeweb/cascade/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *Server) scopeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scopes)
}

func TestScope_ReleasedWithSession(t *testing.T) {
	manager := session.NewManager(memory.NewStore(), func() *component.Component {
		return component.Wrap(nil)
	})
	server := NewServer(manager)
	ctx := context.Background()

	ids := []string{"s1", "s2", "s3"}
	for _, id := range ids {
		sess, _, err := manager.LoadOrStart(ctx, id)
		require.NoError(t, err)
		server.scope(sess)
	}
	require.Equal(t, len(ids), server.scopeCount())

	for _, id := range ids {
		require.NoError(t, manager.Discard(ctx, id))
	}
	require.Zero(t, manager.Len())

	// The entries go away with the sessions, not with the server.
	assert.Eventually(t, func() bool { return server.scopeCount() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestScope_StableForLiveSession(t *testing.T) {
	manager := session.NewManager(memory.NewStore(), func() *component.Component {
		return component.Wrap(nil)
	})
	server := NewServer(manager)
	ctx := context.Background()

	sess, _, err := manager.LoadOrStart(ctx, "s1")
	require.NoError(t, err)

	first := server.scope(sess)
	assert.Same(t, first, server.scope(sess))

	// A restarted session under the same identifier gets a fresh scope.
	require.NoError(t, manager.Discard(ctx, "s1"))
	fresh, _, err := manager.LoadOrStart(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, first, server.scope(fresh))
}
