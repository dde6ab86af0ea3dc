package models

// Suit names. Every card effect in the duel is keyed off the suit alone;
// the rank only determines the magnitude.
const (
	SuitHearts   = "Hearts"
	SuitDiamonds = "Diamonds"
	SuitSpades   = "Spades"
	SuitClubs    = "Clubs"
)

// Suits lists the four suits in deck-construction order.
var Suits = []string{SuitHearts, SuitDiamonds, SuitSpades, SuitClubs}

// Ranks lists the thirteen ranks in deck-construction order.
var Ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

var suitSymbols = map[string]string{
	SuitHearts:   "♥",
	SuitDiamonds: "♦",
	SuitSpades:   "♠",
	SuitClubs:    "♣",
}

// Card is a single playing card. Immutable once created; Value is derived
// from Rank at construction and never recomputed.
type Card struct {
	Suit  string `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
}

// NewCard builds a card with its effect value filled in.
func NewCard(suit, rank string) Card {
	return Card{Suit: suit, Rank: rank, Value: RankValue(rank)}
}

// RankValue maps a rank to its effect value: A=1, face cards and 10 are 10,
// everything else is the numeric rank.
func RankValue(rank string) int {
	switch rank {
	case "A":
		return 1
	case "10", "J", "Q", "K":
		return 10
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	case "7":
		return 7
	case "8":
		return 8
	case "9":
		return 9
	}
	return 0
}

// String renders the card the way the client displays it, e.g. "K♥".
func (c Card) String() string {
	if sym, ok := suitSymbols[c.Suit]; ok {
		return c.Rank + sym
	}
	return c.Rank + c.Suit
}
