// internal/game/effects.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/suitduel/internal/models"
)

// EffectResult describes what resolving a played card actually did. The
// description always reports real outcomes (actual heal, actual cards drawn),
// except for Spades damage, which reports the requested amount by rule.
type EffectResult struct {
	Description string

	// ForcedDiscard is the obligation imposed on the target by a Clubs
	// card: min(card value, target hand size). Zero for every other suit,
	// and zero for Clubs against an empty hand.
	ForcedDiscard int
}

// resolveEffect applies the played card's effect to the actor and target.
// It mutates player and pile state only; whose turn comes next is entirely
// the state machine's business. The played card must already have been moved
// to the discard pile.
// Assumes the session lock is held.
func (g *DuelGame) resolveEffect(actor, target *models.PlayerState, card models.Card) EffectResult {
	switch card.Suit {
	case models.SuitHearts:
		before := actor.Health
		actor.Health = min(MaxHealth, actor.Health+card.Value)
		return EffectResult{
			Description: fmt.Sprintf("Healed %d HP.", actor.Health-before),
		}

	case models.SuitDiamonds:
		drawn := g.draw(actor, card.Value)
		return EffectResult{
			Description: fmt.Sprintf("Drew %d card(s).", len(drawn)),
		}

	case models.SuitSpades:
		target.Health -= card.Value
		return EffectResult{
			Description: fmt.Sprintf("Dealt %d damage to %s.", card.Value, target.Name),
		}

	case models.SuitClubs:
		n := min(card.Value, len(target.Hand))
		if n == 0 {
			return EffectResult{
				Description: fmt.Sprintf("%s has no cards to discard.", target.Name),
			}
		}
		target.PendingDiscard = n
		target.DiscardReason = fmt.Sprintf("%s's %s forces discard.", actor.Name, card)
		return EffectResult{
			Description:   fmt.Sprintf("%s must discard %d card(s).", target.Name, n),
			ForcedDiscard: n,
		}
	}

	// Unreachable with a deck built by newShuffledDeck.
	return EffectResult{Description: "No effect."}
}
