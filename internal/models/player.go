package models

// PlayerState is one side of a duel. It is owned exclusively by its duel
// session; the WebSocket connection lives in the handlers layer, not here.
type PlayerState struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Health int    `json:"health"` // unclamped internally; may go negative
	Hand   []Card `json:"hand"`

	// PendingDiscard is the number of cards this player still owes the
	// discard pile before any other action is accepted. At most one player
	// in a session has a non-zero value at any time.
	PendingDiscard int    `json:"-"`
	DiscardReason  string `json:"-"`
}

// HandSize is a convenience accessor for the opponent-visible card count.
func (p *PlayerState) HandSize() int {
	return len(p.Hand)
}
