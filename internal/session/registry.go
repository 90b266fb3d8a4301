package session

import (
	"log/slog"
	"sync"
)

// Connection is one live transport session. The gateway owns the
// concrete connection; everything else only pushes events through this
// interface. Send must never block the caller.
type Connection interface {
	ID() string
	Send(event string, payload any)
	Close()
}

// Registry maps an authenticated identity to its live connection. It is
// the single source of truth for "is user X currently reachable".
type Registry struct {
	logger *slog.Logger

	mu          sync.RWMutex
	connections map[string]Connection
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:      logger.With("component", "session_registry"),
		connections: make(map[string]Connection),
	}
}

// Register binds the identity to the connection. Any prior connection
// for the same identity is told it was replaced and closed, so only one
// session per identity ever receives broadcasts.
func (that *Registry) Register(identityID string, conn Connection) {
	that.mu.Lock()
	prior, hadPrior := that.connections[identityID]
	that.connections[identityID] = conn
	that.mu.Unlock()

	if hadPrior && prior.ID() != conn.ID() {
		that.logger.Info("replacing existing session", "identity", identityID)
		prior.Send("session:replaced", nil)
		prior.Close()
	}
}

// Lookup returns the identity's live connection, if any.
func (that *Registry) Lookup(identityID string) (Connection, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	conn, ok := that.connections[identityID]

	return conn, ok
}

// Unregister removes the mapping only while it still points at this
// exact connection, so a stale unregister cannot race a newer register.
// It reports whether the mapping was removed; a false return means a
// newer session owns the identity and the caller must not tear down any
// identity-scoped state.
func (that *Registry) Unregister(identityID string, conn Connection) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	current, ok := that.connections[identityID]
	if !ok || current.ID() != conn.ID() {
		return false
	}

	delete(that.connections, identityID)

	return true
}
