package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Registry tracks the live connection per user. A user holds at most one
// connection at a time: registering a new one closes the previous socket
// before the replacement becomes visible.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	logger *zap.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{conns: make(map[string]*Connection), logger: logger}
}

// Register installs conn as the user's connection, closing any previous one.
func (r *Registry) Register(userID string, conn *Connection) {
	r.mu.Lock()
	previous := r.conns[userID]
	r.conns[userID] = conn
	r.mu.Unlock()

	if previous != nil && previous != conn {
		r.logger.Debug("replacing live connection", zap.String("user_id", userID))
		previous.Close()
	}
}

// Unregister removes conn if it is still the user's current connection. A
// connection replaced by a newer one must not evict its successor.
func (r *Registry) Unregister(userID string, conn *Connection) {
	r.mu.Lock()
	if r.conns[userID] == conn {
		delete(r.conns, userID)
	}
	r.mu.Unlock()
}

// Get returns the user's live connection, nil when offline.
func (r *Registry) Get(userID string) *Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[userID]
}

// Count reports the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll tears down every live connection, used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[string]*Connection)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
