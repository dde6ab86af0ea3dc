// internal/game/matchmaker.go
package game

import "sync"

// Matchmaker holds at most one waiting connection id. A joining player is
// paired with the waiting one, or parked as the new waiting entry. The slot
// is cleared eagerly on disconnect notification, never lazily.
type Matchmaker struct {
	mu        sync.Mutex
	waitingID int64
	waiting   bool
}

func NewMatchmaker() *Matchmaker {
	return &Matchmaker{}
}

// JoinStatus reports how Join resolved.
type JoinStatus int

const (
	// JoinParked: the slot was empty, the joiner now waits.
	JoinParked JoinStatus = iota
	// JoinAlreadyWaiting: the joiner was already parked.
	JoinAlreadyWaiting
	// JoinReparked: the parked id was stale and the joiner took the slot.
	JoinReparked
	// JoinMatched: a session should be created with the returned opponent.
	JoinMatched
)

// Join applies the single-slot pairing policy for id. stillFree reports
// whether a previously parked id is still connected and unmatched; a stale
// entry is replaced by the joiner. opponentID is meaningful only when the
// status is JoinMatched.
func (m *Matchmaker) Join(id int64, stillFree func(int64) bool) (opponentID int64, status JoinStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.waiting {
		m.waitingID = id
		m.waiting = true
		return 0, JoinParked
	}
	if m.waitingID == id {
		return 0, JoinAlreadyWaiting
	}
	if stillFree != nil && !stillFree(m.waitingID) {
		// Previous opponent vanished; the joiner takes the slot.
		m.waitingID = id
		return 0, JoinReparked
	}
	opponentID = m.waitingID
	m.waiting = false
	m.waitingID = 0
	return opponentID, JoinMatched
}

// Cancel clears the waiting slot if id occupies it. Called from the
// disconnect path so nobody gets paired with a dead connection.
func (m *Matchmaker) Cancel(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.waiting && m.waitingID == id {
		m.waiting = false
		m.waitingID = 0
	}
}

// Waiting returns the currently parked id, if any.
func (m *Matchmaker) Waiting() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitingID, m.waiting
}
