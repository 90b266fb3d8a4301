package session

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     string
	sent   []string
	closed bool
}

func (that *fakeConn) ID() string { return that.id }

func (that *fakeConn) Send(event string, _ any) {
	that.sent = append(that.sent, event)
}

func (that *fakeConn) Close() { that.closed = true }

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistry_Register(t *testing.T) {
	t.Run("Registers a connection and makes it reachable", func(t *testing.T) {
		// Given: an empty registry
		registry := newTestRegistry()
		conn := &fakeConn{id: "conn-1"}

		// When: registering an identity
		registry.Register("alice", conn)

		// Then: lookup returns the connection
		found, ok := registry.Lookup("alice")
		require.True(t, ok)
		assert.Equal(t, conn, found)
	})

	t.Run("Replaces and closes a prior connection for the same identity", func(t *testing.T) {
		// Given: an identity already registered on an old connection
		registry := newTestRegistry()
		oldConn := &fakeConn{id: "conn-1"}
		registry.Register("alice", oldConn)

		// When: the identity registers again on a new connection
		newConn := &fakeConn{id: "conn-2"}
		registry.Register("alice", newConn)

		// Then: the old connection is told and closed, and lookup points at the new one
		assert.True(t, oldConn.closed)
		assert.Contains(t, oldConn.sent, "session:replaced")

		found, ok := registry.Lookup("alice")
		require.True(t, ok)
		assert.Equal(t, newConn, found)
	})
}

func TestRegistry_Unregister(t *testing.T) {
	t.Run("Removes the mapping for the current connection", func(t *testing.T) {
		// Given: a registered identity
		registry := newTestRegistry()
		conn := &fakeConn{id: "conn-1"}
		registry.Register("alice", conn)

		// When: unregistering with the same connection
		removed := registry.Unregister("alice", conn)

		// Then: the removal is confirmed and the identity is no longer reachable
		assert.True(t, removed)
		_, ok := registry.Lookup("alice")
		assert.False(t, ok)
	})

	t.Run("Ignores a stale unregister racing a newer register", func(t *testing.T) {
		// Given: an identity replaced by a newer connection
		registry := newTestRegistry()
		oldConn := &fakeConn{id: "conn-1"}
		newConn := &fakeConn{id: "conn-2"}
		registry.Register("alice", oldConn)
		registry.Register("alice", newConn)

		// When: the old connection's cleanup fires late
		removed := registry.Unregister("alice", oldConn)

		// Then: the removal is refused and the newer connection stays registered
		assert.False(t, removed)
		found, ok := registry.Lookup("alice")
		require.True(t, ok)
		assert.Equal(t, newConn, found)
	})

	t.Run("Unregistering an unknown identity is a no-op", func(t *testing.T) {
		// Given: an empty registry
		registry := newTestRegistry()

		// When/Then: no panic, nothing removed
		assert.False(t, registry.Unregister("ghost", &fakeConn{id: "conn-1"}))
		_, ok := registry.Lookup("ghost")
		assert.False(t, ok)
	})
}
