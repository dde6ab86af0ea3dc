// internal/game/duel_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// DuelStore is the table of live sessions, keyed by duel id.
type DuelStore struct {
	mu    sync.Mutex
	duels map[uuid.UUID]*DuelGame
}

func NewDuelStore() *DuelStore {
	return &DuelStore{
		duels: make(map[uuid.UUID]*DuelGame),
	}
}

func (s *DuelStore) Add(g *DuelGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duels[g.ID] = g
}

func (s *DuelStore) Get(id uuid.UUID) (*DuelGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.duels[id]
	return g, ok
}

// Delete releases the session. Called the moment the terminal broadcast has
// been sent, or on disconnect teardown.
func (s *DuelStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.duels, id)
}

// Len reports the number of live sessions.
func (s *DuelStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.duels)
}
