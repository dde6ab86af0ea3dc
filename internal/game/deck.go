// internal/game/deck.go
package game

import (
	"log"
	"math/rand"

	"github.com/jason-s-yu/suitduel/internal/models"
)

// newShuffledDeck builds the standard 52-card deck and shuffles it with the
// session's seeded RNG so a replay with the same seed deals identically.
func newShuffledDeck(rng *rand.Rand) []models.Card {
	deck := make([]models.Card, 0, 52)
	for _, suit := range models.Suits {
		for _, rank := range models.Ranks {
			deck = append(deck, models.NewCard(suit, rank))
		}
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// draw moves up to count cards from the top of the deck into p's hand.
// When the deck runs dry the discard pile is recycled; when both piles are
// empty, or the hand is at the cap, the draw stops short silently. Callers
// must report the actual number drawn, never the requested one.
// Assumes the session lock is held.
func (g *DuelGame) draw(p *models.PlayerState, count int) []models.Card {
	var drawn []models.Card
	for i := 0; i < count; i++ {
		if len(g.Deck) == 0 {
			if len(g.DiscardPile) == 0 {
				break
			}
			g.recycleDiscard()
		}
		if len(p.Hand) >= MaxHandSize {
			// Hand is full; the top card stays on the deck.
			break
		}
		card := g.Deck[len(g.Deck)-1]
		g.Deck = g.Deck[:len(g.Deck)-1]
		p.Hand = append(p.Hand, card)
		drawn = append(drawn, card)
	}
	return drawn
}

// recycleDiscard shuffles the entire discard pile back into the deck.
// Assumes the session lock is held and the deck is empty.
func (g *DuelGame) recycleDiscard() {
	log.Printf("Duel %s: deck empty, reshuffling %d card(s) from discard pile.", g.ID, len(g.DiscardPile))
	g.Deck = append(g.Deck, g.DiscardPile...)
	g.DiscardPile = g.DiscardPile[:0]
	g.rng.Shuffle(len(g.Deck), func(i, j int) {
		g.Deck[i], g.Deck[j] = g.Deck[j], g.Deck[i]
	})
	g.logAction(0, "deck_reshuffle", map[string]interface{}{"deckSize": len(g.Deck)})
}
