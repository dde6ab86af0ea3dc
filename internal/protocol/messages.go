// internal/protocol/messages.go
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jason-s-yu/suitduel/internal/models"
)

// ErrUnknownType marks a structurally valid message with a tag outside the
// closed set. The decoded message is still returned so callers can echo the
// offending tag.
var ErrUnknownType = errors.New("unknown message type")

// Client → server message tags.
const (
	MsgJoin         = "JOIN"
	MsgPlayCard     = "PLAY_CARD"
	MsgDiscardCards = "DISCARD_CARDS"
	MsgRequestDraw  = "REQUEST_DRAW"
	MsgLeaveGame    = "LEAVE_GAME"
	MsgPing         = "PING"
)

// Server → client message tags.
const (
	MsgConnected          = "CONNECTED"
	MsgWaiting            = "WAITING"
	MsgGameStart          = "GAME_START"
	MsgGameUpdate         = "GAME_UPDATE"
	MsgDiscardRequired    = "DISCARD_REQUIRED"
	MsgGameOver           = "GAME_OVER"
	MsgPlayerDisconnected = "PLAYER_DISCONNECTED"
	MsgLeftGame           = "LEFT_GAME"
	MsgError              = "ERROR"
	MsgPong               = "PONG"
)

// CardRef identifies a card by suit and rank. PLAY_CARD resolves it against
// the sender's hand; the value is never trusted from the wire.
type CardRef struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// ClientMessage is the decoded envelope for every client → server message.
// The tag set is closed: DecodeClientMessage rejects anything outside it so
// handlers never branch on raw strings from the wire.
type ClientMessage struct {
	Type    string   `json:"type"`
	Name    string   `json:"name,omitempty"`    // JOIN
	Card    *CardRef `json:"card,omitempty"`    // PLAY_CARD
	Indices []int    `json:"indices,omitempty"` // DISCARD_CARDS
	Count   int      `json:"count,omitempty"`   // REQUEST_DRAW
}

// DecodeClientMessage unmarshals raw bytes into a ClientMessage and verifies
// the type tag is one of the known client message types. Any failure here is
// a protocol error; the session state must not be touched.
func DecodeClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}
	switch msg.Type {
	case MsgJoin, MsgPlayCard, MsgDiscardCards, MsgRequestDraw, MsgLeaveGame, MsgPing:
		return &msg, nil
	}
	return &msg, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
}

// PileView is the client-visible projection of the discard pile: the top
// card and the count, never the full ordering.
type PileView struct {
	Top   *models.Card `json:"top,omitempty"`
	Count int          `json:"count"`
}

// Connected is sent once per connection, immediately after the upgrade.
type Connected struct {
	Type     string `json:"type"`
	PlayerID int64  `json:"playerId"`
}

// Waiting tells a joining player they are parked until an opponent arrives.
type Waiting struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GameStart carries the full initial view for one recipient.
type GameStart struct {
	Type              string        `json:"type"`
	PlayerID          int64         `json:"playerId"`
	OpponentName      string        `json:"opponentName"`
	Hand              []models.Card `json:"hand"`
	PlayerHealth      int           `json:"playerHealth"`
	OpponentHealth    int           `json:"opponentHealth"`
	OpponentCardCount int           `json:"opponentCardCount"`
	DiscardPile       PileView      `json:"discardPile"`
	DeckCount         int           `json:"deckCount"`
	IsYourTurn        bool          `json:"isYourTurn"`
	Message           string        `json:"message"`
}

// GameUpdate is broadcast after every accepted action. Hand is a pointer so
// it is omitted entirely unless the recipient's own hand changed.
type GameUpdate struct {
	Type              string         `json:"type"`
	PlayerHealth      int            `json:"playerHealth"`
	OpponentHealth    int            `json:"opponentHealth"`
	Hand              *[]models.Card `json:"hand,omitempty"`
	OpponentCardCount int            `json:"opponentCardCount"`
	DiscardPile       PileView       `json:"discardPile"`
	DeckCount         int            `json:"deckCount"`
	IsYourTurn        bool           `json:"isYourTurn"`
	Message           string         `json:"message"`
}

// DiscardRequired follows a GameUpdate when the recipient owes a discard.
type DiscardRequired struct {
	Type   string `json:"type"`
	Count  int    `json:"count"`
	Reason string `json:"reason"`
}

// GameOver is terminal; both health values are clamped to ≥ 0 here and only
// here. The session is removed immediately after this is sent.
type GameOver struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	PlayerHealth   int    `json:"playerHealth"`
	OpponentHealth int    `json:"opponentHealth"`
}

// PlayerDisconnected notifies the surviving player that the session died.
type PlayerDisconnected struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// LeftGame confirms a voluntary LEAVE_GAME to the leaver.
type LeftGame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorMessage reports a rejected or malformed action. UnlockAction signals
// the client may release its pending-action lock and retry.
type ErrorMessage struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	UnlockAction bool   `json:"unlockAction,omitempty"`
}

// NewError builds a validation error the client may retry after.
func NewError(message string, unlock bool) ErrorMessage {
	return ErrorMessage{Type: MsgError, Message: message, UnlockAction: unlock}
}
