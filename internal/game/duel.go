// internal/game/duel.go
package game

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/suitduel/internal/cache"
	"github.com/jason-s-yu/suitduel/internal/models"
)

// Game constants, matching the client's expectations.
const (
	StartingHealth   = 20
	MaxHealth        = 20
	StartingHandSize = 5
	MaxHandSize      = 10
)

// Phase is the turn state machine. Exactly one of the three states holds at
// any time; there is no representable state where both players owe a discard.
type Phase int

const (
	// PhaseAwaitingPlay: the turn owner may play a card or request a draw.
	PhaseAwaitingPlay Phase = iota
	// PhaseAwaitingDiscard: the turn owner owes PendingDiscard cards and no
	// other action by either player is accepted.
	PhaseAwaitingDiscard
	// PhaseOver: terminal. The session is torn down right after the final
	// broadcast.
	PhaseOver
)

// Result is the terminal outcome of a duel.
type Result struct {
	WinnerID int64 // meaningful only when !Draw
	Draw     bool
	Forfeit  bool
	Message  string
}

// ActionOutcome reports what an accepted action changed, for broadcasting.
type ActionOutcome struct {
	// Message is the effect text shown to both players.
	Message string
	// HandChanged flags the players whose hand contents changed, so
	// GAME_UPDATE includes the hand only for them.
	HandChanged map[int64]bool
}

// DuelGame holds the entire state for one two-player session in memory.
// All exported Handle* methods assume the caller holds Mu for the full
// validate-mutate-broadcast sequence; that single lock is what serializes
// the two connections' messages into a strict alternation.
type DuelGame struct {
	ID   uuid.UUID
	Seed int64

	Players     [2]*models.PlayerState
	Deck        []models.Card
	DiscardPile []models.Card

	Phase     Phase
	TurnOwner int64
	Result    *Result

	rng         *rand.Rand
	actionIndex int

	Mu sync.Mutex
}

// NewDuelGame builds a fully formed session: deck shuffled, five cards dealt
// to each player alternately, and the starting turn owner chosen uniformly at
// random. There is no "forming" sub-state.
func NewDuelGame(p1, p2 *models.PlayerState) *DuelGame {
	return NewDuelGameWithSeed(p1, p2, time.Now().UnixNano())
}

// NewDuelGameWithSeed is NewDuelGame with a caller-supplied shuffle seed.
// The seed is journaled with the initial snapshot so an outcome can be
// replayed deterministically.
func NewDuelGameWithSeed(p1, p2 *models.PlayerState, seed int64) *DuelGame {
	id, _ := uuid.NewRandom()
	g := &DuelGame{
		ID:   id,
		Seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}

	p1.Health = StartingHealth
	p2.Health = StartingHealth
	p1.Hand = make([]models.Card, 0, StartingHandSize)
	p2.Hand = make([]models.Card, 0, StartingHandSize)
	g.Players = [2]*models.PlayerState{p1, p2}

	g.Deck = newShuffledDeck(g.rng)
	for i := 0; i < StartingHandSize; i++ {
		g.draw(p1, 1)
		g.draw(p2, 1)
	}

	g.Phase = PhaseAwaitingPlay
	if g.rng.Intn(2) == 0 {
		g.TurnOwner = p1.ID
	} else {
		g.TurnOwner = p2.ID
	}

	g.journalInitialState()
	log.Printf("Duel %s created: %s (%d) vs %s (%d), starting player %d, deck %d.",
		g.ID, p1.Name, p1.ID, p2.Name, p2.ID, g.TurnOwner, len(g.Deck))
	return g
}

// PlayerByID returns the player with the given id, or nil.
func (g *DuelGame) PlayerByID(id int64) *models.PlayerState {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Opponent returns the other player, or nil if id is not in this session.
func (g *DuelGame) Opponent(id int64) *models.PlayerState {
	for _, p := range g.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// HandlePlayCard validates and resolves a PLAY_CARD action. The card is
// identified by suit and rank against the sender's live hand.
// Assumes the session lock is held.
func (g *DuelGame) HandlePlayCard(playerID int64, suit, rank string) (*ActionOutcome, error) {
	if err := g.checkMayAct(playerID); err != nil {
		return nil, err
	}

	actor := g.PlayerByID(playerID)
	target := g.Opponent(playerID)
	if actor == nil || target == nil {
		return nil, fmt.Errorf("duel %s: player state missing for %d", g.ID, playerID)
	}

	idx := -1
	for i, c := range actor.Hand {
		if c.Suit == suit && c.Rank == rank {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, validationErrorf("Card not found in your hand.")
	}

	// Move the card to the discard pile before resolving, so it is out of
	// the hand during the effect and part of the pile if a Diamonds draw
	// forces a recycle.
	card := actor.Hand[idx]
	actor.Hand = append(actor.Hand[:idx], actor.Hand[idx+1:]...)
	g.DiscardPile = append(g.DiscardPile, card)

	res := g.resolveEffect(actor, target, card)
	msg := fmt.Sprintf("%s played %s. %s", actor.Name, card, res.Description)

	g.logAction(playerID, "play_card", map[string]interface{}{
		"suit": card.Suit, "rank": card.Rank, "value": card.Value,
		"forcedDiscard": res.ForcedDiscard,
	})

	g.evaluateWin()
	if g.Phase != PhaseOver {
		switch {
		case card.Suit == models.SuitClubs:
			// The actor's turn ends either way; with an empty hand the
			// target owes nothing and goes straight to playing.
			g.TurnOwner = target.ID
			if res.ForcedDiscard > 0 {
				g.Phase = PhaseAwaitingDiscard
			} else {
				g.Phase = PhaseAwaitingPlay
			}
		case len(actor.Hand) > MaxHandSize:
			// Defensive: draw already self-limits at the hand cap, so this
			// branch should be unreachable.
			excess := len(actor.Hand) - MaxHandSize
			actor.PendingDiscard = excess
			actor.DiscardReason = "Hand limit exceeded."
			g.TurnOwner = actor.ID
			g.Phase = PhaseAwaitingDiscard
		default:
			g.TurnOwner = target.ID
			g.Phase = PhaseAwaitingPlay
		}
	}

	return &ActionOutcome{
		Message:     msg,
		HandChanged: map[int64]bool{actor.ID: true},
	}, nil
}

// HandleDiscardCards validates and applies a DISCARD_CARDS action. Indices
// are interpreted against the sender's current hand, not any client-side
// snapshot, and removed highest-first so earlier indices stay valid.
// Assumes the session lock is held.
func (g *DuelGame) HandleDiscardCards(playerID int64, indices []int) (*ActionOutcome, error) {
	if g.Phase == PhaseOver {
		return nil, validationErrorf("Game is over.")
	}
	player := g.PlayerByID(playerID)
	if player == nil {
		return nil, fmt.Errorf("duel %s: player state missing for %d", g.ID, playerID)
	}
	if g.Phase != PhaseAwaitingDiscard || g.TurnOwner != playerID {
		return nil, validationErrorf("You are not required to discard now.")
	}

	owed := player.PendingDiscard
	if len(indices) != owed {
		return nil, validationErrorf("Invalid selection. You must discard exactly %d card(s) (received %d).", owed, len(indices))
	}

	unique := make([]int, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if seen[idx] {
			return nil, validationErrorf("Invalid selection. Duplicate card indices provided.")
		}
		seen[idx] = true
		if idx < 0 || idx >= len(player.Hand) {
			return nil, validationErrorf("Invalid selection. Card index out of bounds.")
		}
		unique = append(unique, idx)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(unique)))

	discarded := make([]string, 0, len(unique))
	for _, idx := range unique {
		card := player.Hand[idx]
		player.Hand = append(player.Hand[:idx], player.Hand[idx+1:]...)
		g.DiscardPile = append(g.DiscardPile, card)
		discarded = append(discarded, card.String())
	}

	player.PendingDiscard = 0
	player.DiscardReason = ""
	msg := fmt.Sprintf("%s discarded %d card(s).", player.Name, len(discarded))

	g.logAction(playerID, "discard_cards", map[string]interface{}{
		"count": len(discarded), "cards": discarded,
	})

	// Whoever just discarded is done with their turn, whether the
	// obligation came from the opponent's Clubs or their own overdraw.
	g.evaluateWin()
	if g.Phase != PhaseOver {
		g.TurnOwner = g.Opponent(playerID).ID
		g.Phase = PhaseAwaitingPlay
	}

	return &ActionOutcome{
		Message:     msg,
		HandChanged: map[int64]bool{playerID: true},
	}, nil
}

// HandleRequestDraw validates and applies a REQUEST_DRAW action. The count
// must be exactly 5 with an empty hand, exactly 1 otherwise. Drawing does
// not end the turn; the player still plays a card afterwards.
// Assumes the session lock is held.
func (g *DuelGame) HandleRequestDraw(playerID int64, count int) (*ActionOutcome, error) {
	if err := g.checkMayAct(playerID); err != nil {
		return nil, err
	}
	player := g.PlayerByID(playerID)
	if player == nil {
		return nil, fmt.Errorf("duel %s: player state missing for %d", g.ID, playerID)
	}

	required := 1
	if len(player.Hand) == 0 {
		required = 5
	}
	if count != required {
		return nil, validationErrorf("Invalid draw request. Hand size: %d, Requested: %d", len(player.Hand), count)
	}

	var msg string
	if required == 5 {
		msg = fmt.Sprintf("%s starts turn with empty hand, drawing 5 cards.", player.Name)
	} else {
		msg = fmt.Sprintf("%s starts turn, drawing 1 card.", player.Name)
	}

	drawn := g.draw(player, count)
	msg += fmt.Sprintf(" Drew %d.", len(drawn))

	g.logAction(playerID, "request_draw", map[string]interface{}{
		"requested": count, "drawn": len(drawn),
	})

	// Defensive re-check; draw self-limits at the cap so this is unreachable.
	if len(player.Hand) > MaxHandSize {
		excess := len(player.Hand) - MaxHandSize
		player.PendingDiscard = excess
		player.DiscardReason = "Hand limit exceeded."
		g.evaluateWin()
		if g.Phase != PhaseOver {
			g.TurnOwner = playerID
			g.Phase = PhaseAwaitingDiscard
		}
	} else {
		g.evaluateWin()
		// Turn stays with the player; they still play a card.
	}

	return &ActionOutcome{
		Message:     msg,
		HandChanged: map[int64]bool{playerID: true},
	}, nil
}

// HandleForfeit ends the session from any non-terminal state because a
// player disconnected or left. No winner is computed from health.
// Assumes the session lock is held.
func (g *DuelGame) HandleForfeit(leaverID int64) {
	if g.Phase == PhaseOver {
		return
	}
	opponent := g.Opponent(leaverID)
	g.Phase = PhaseOver
	g.Result = &Result{Forfeit: true, Message: "Game Over! Opponent left."}
	if opponent != nil {
		g.Result.WinnerID = opponent.ID
	}
	g.logAction(leaverID, "forfeit", nil)
}

// checkMayAct gates PLAY_CARD and REQUEST_DRAW: the sender must own the turn
// and must not have an outstanding discard obligation.
func (g *DuelGame) checkMayAct(playerID int64) error {
	switch {
	case g.Phase == PhaseOver:
		return validationErrorf("Game is over.")
	case g.TurnOwner != playerID:
		return validationErrorf("Not your turn.")
	case g.Phase == PhaseAwaitingDiscard:
		return validationErrorf("You must discard first.")
	}
	return nil
}

// evaluateWin runs after every accepted action, before the next phase is
// decided. Health is never clamped here; the sudden-death comparison relies
// on internal values staying negative.
func (g *DuelGame) evaluateWin() {
	if g.Phase == PhaseOver {
		return
	}
	a, b := g.Players[0], g.Players[1]
	aDead := a.Health <= 0
	bDead := b.Health <= 0

	switch {
	case aDead && bDead:
		// Sudden death: the larger hand wins.
		g.Phase = PhaseOver
		switch {
		case len(a.Hand) > len(b.Hand):
			g.Result = &Result{WinnerID: a.ID, Message: fmt.Sprintf("Game Over! %s wins!", a.Name)}
		case len(b.Hand) > len(a.Hand):
			g.Result = &Result{WinnerID: b.ID, Message: fmt.Sprintf("Game Over! %s wins!", b.Name)}
		default:
			g.Result = &Result{Draw: true, Message: "Game Over! It's a draw!"}
		}
		log.Printf("Duel %s: sudden death (hands %d vs %d): %s", g.ID, len(a.Hand), len(b.Hand), g.Result.Message)
	case aDead:
		g.Phase = PhaseOver
		g.Result = &Result{WinnerID: b.ID, Message: fmt.Sprintf("Game Over! %s wins!", b.Name)}
	case bDead:
		g.Phase = PhaseOver
		g.Result = &Result{WinnerID: a.ID, Message: fmt.Sprintf("Game Over! %s wins!", a.Name)}
	}

	if g.Phase == PhaseOver {
		g.logAction(0, "game_end", map[string]interface{}{
			"winnerId": g.Result.WinnerID,
			"draw":     g.Result.Draw,
		})
	}
}

// TotalCards reports the card-conservation invariant: deck + discard + both
// hands must always sum to 52.
func (g *DuelGame) TotalCards() int {
	return len(g.Deck) + len(g.DiscardPile) + len(g.Players[0].Hand) + len(g.Players[1].Hand)
}

// journalInitialState records the shuffled deck order, the dealt hands and
// the seed, so a replay can reconstruct the session from the action log.
func (g *DuelGame) journalInitialState() {
	hands := make(map[string][]string, 2)
	for _, p := range g.Players {
		cards := make([]string, len(p.Hand))
		for i, c := range p.Hand {
			cards[i] = c.String()
		}
		hands[fmt.Sprint(p.ID)] = cards
	}
	deck := make([]string, len(g.Deck))
	for i, c := range g.Deck {
		deck[i] = c.String()
	}
	g.logAction(0, "duel_created", map[string]interface{}{
		"seed":      g.Seed,
		"deck":      deck,
		"hands":     hands,
		"turnOwner": g.TurnOwner,
	})
}

// logAction publishes an action record to the Redis journal asynchronously.
// The journal is best effort: a missing or failing Redis never blocks play.
func (g *DuelGame) logAction(actorID int64, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.DuelActionRecord{
		DuelID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.DuelActionRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishDuelAction(ctx, rec); err != nil {
			log.Printf("Error publishing action %d for duel %s: %v", rec.ActionIndex, g.ID, err)
		}
	}(record)
}
