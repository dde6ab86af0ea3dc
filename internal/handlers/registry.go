// internal/handlers/registry.go
package handlers

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// ConnectionRecord tracks one live WebSocket connection. ID is assigned at
// registration and never reused; it doubles as the player id for the whole
// connection lifetime. Name and DuelID are guarded by the registry mutex.
type ConnectionRecord struct {
	ID   int64
	Conn *websocket.Conn

	name   string
	duelID uuid.UUID // uuid.Nil while not in a session
}

// ConnectionRegistry is the table of live connections. A monotonically
// increasing counter hands out ids, so a reconnecting client is always a new
// identity; there is no resume.
type ConnectionRegistry struct {
	mu     sync.Mutex
	nextID int64
	conns  map[int64]*ConnectionRecord
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[int64]*ConnectionRecord),
	}
}

// Register assigns the next id to the connection and records it.
func (r *ConnectionRegistry) Register(conn *websocket.Conn) *ConnectionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec := &ConnectionRecord{ID: r.nextID, Conn: conn}
	r.conns[rec.ID] = rec
	return rec
}

// Remove drops the connection record. Safe to call twice.
func (r *ConnectionRegistry) Remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Get returns the record for id, if the connection is still live.
func (r *ConnectionRegistry) Get(id int64) (*ConnectionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.conns[id]
	return rec, ok
}

// SetName stores the JOIN name for id.
func (r *ConnectionRegistry) SetName(id int64, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.conns[id]; ok {
		rec.name = name
	}
}

// NameOf returns the JOIN name last set for id.
func (r *ConnectionRegistry) NameOf(id int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.conns[id]; ok {
		return rec.name
	}
	return ""
}

// BindDuel marks id as belonging to the given session.
func (r *ConnectionRegistry) BindDuel(id int64, duelID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.conns[id]; ok {
		rec.duelID = duelID
	}
}

// ClearDuel frees id for matchmaking again. Called on session teardown so a
// finished player can JOIN right back into the queue.
func (r *ConnectionRegistry) ClearDuel(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.conns[id]; ok {
		rec.duelID = uuid.Nil
	}
}

// DuelOf returns the session id bound to the connection, if any.
func (r *ConnectionRegistry) DuelOf(id int64) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.conns[id]
	if !ok || rec.duelID == uuid.Nil {
		return uuid.Nil, false
	}
	return rec.duelID, true
}

// Count reports the number of live connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
