package server

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// SessionManager tracks the open connections.
type SessionManager struct {
	mu       sync.RWMutex
	conns    map[string]*Conn
	reserved int
	max      int

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64

	logger *slog.Logger
}

// NewSessionManager creates a registry allowing max concurrent
// connections. 0 means no limit.
func NewSessionManager(max int, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		conns:  make(map[string]*Conn),
		max:    max,
		logger: logger,
	}
}

// Reserve claims a connection slot. It reports false when the limit is
// reached.
func (sm *SessionManager) Reserve() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.max > 0 && sm.reserved >= sm.max {
		return false
	}
	sm.reserved++
	return true
}

// Release returns a slot claimed by Reserve that never became a
// connection.
func (sm *SessionManager) Release() {
	sm.mu.Lock()
	if sm.reserved > 0 {
		sm.reserved--
	}
	sm.mu.Unlock()
}

func (sm *SessionManager) add(c *Conn) {
	sm.mu.Lock()
	sm.conns[c.ID()] = c
	sm.mu.Unlock()
	sm.totalCreated.Add(1)
	sm.logger.Info("session created", "session_id", c.ID())
}

// Get returns the connection with the given session id, or nil.
func (sm *SessionManager) Get(id string) *Conn {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.conns[id]
}

// Close ends the connection with the given session id. Its handler
// unmounts the session and removes it from the registry once the read loop
// returns.
func (sm *SessionManager) Close(id string) {
	if c := sm.Get(id); c != nil {
		c.Close()
	}
}

// remove tears down c and forgets it. It runs on c's handler goroutine.
func (sm *SessionManager) remove(c *Conn) {
	id := c.ID()
	sm.mu.Lock()
	_, ok := sm.conns[id]
	if ok {
		delete(sm.conns, id)
		sm.reserved--
	}
	sm.mu.Unlock()

	c.teardown()
	if !ok {
		return
	}
	sm.totalClosed.Add(1)
	sm.logger.Info("session closed", "session_id", id)
}

// Count returns the number of open connections.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.conns)
}

// IDs returns the open session ids in sorted order.
func (sm *SessionManager) IDs() []string {
	sm.mu.RLock()
	ids := make([]string, 0, len(sm.conns))
	for id := range sm.conns {
		ids = append(ids, id)
	}
	sm.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Stats reports connection totals.
func (sm *SessionManager) Stats() ManagerStats {
	return ManagerStats{
		Active:       sm.Count(),
		TotalCreated: sm.totalCreated.Load(),
		TotalClosed:  sm.totalClosed.Load(),
	}
}

// ManagerStats is a snapshot of SessionManager counters.
type ManagerStats struct {
	Active       int
	TotalCreated uint64
	TotalClosed  uint64
}

// Shutdown ends every open connection. Their handlers unmount them and
// remove them from the registry as their read loops end.
func (sm *SessionManager) Shutdown() {
	sm.mu.RLock()
	conns := make([]*Conn, 0, len(sm.conns))
	for _, c := range sm.conns {
		conns = append(conns, c)
	}
	sm.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
}
