// internal/handlers/game_server.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/suitduel/internal/database"
	"github.com/jason-s-yu/suitduel/internal/game"
	"github.com/jason-s-yu/suitduel/internal/models"
	"github.com/jason-s-yu/suitduel/internal/protocol"
)

// MaxNameLen is the cap applied to JOIN names before any other use.
const MaxNameLen = 15

// GameServer owns the connection registry, the matchmaking slot and the table
// of live duels. matchMu serializes JOIN handling and session creation so two
// simultaneous joiners cannot both pair with the same waiting player.
type GameServer struct {
	Registry   *ConnectionRegistry
	Duels      *game.DuelStore
	Matchmaker *game.Matchmaker
	Logger     *logrus.Logger

	matchMu sync.Mutex
}

func NewGameServer(logger *logrus.Logger) *GameServer {
	return &GameServer{
		Registry:   NewConnectionRegistry(),
		Duels:      game.NewDuelStore(),
		Matchmaker: game.NewMatchmaker(),
		Logger:     logger,
	}
}

// HandleJoin processes a JOIN: validate the name, then either park the player
// in the waiting slot or pair them with whoever is already parked.
func (s *GameServer) HandleJoin(ctx context.Context, rec *ConnectionRecord, rawName string) {
	name := truncateName(rawName)
	if name == "" {
		sendWsMessage(s.Logger, rec.Conn, protocol.NewError("Name is required to join.", false))
		return
	}

	s.matchMu.Lock()
	defer s.matchMu.Unlock()

	if _, inGame := s.Registry.DuelOf(rec.ID); inGame {
		s.Logger.Warnf("Player %d sent JOIN while already in a game.", rec.ID)
		sendWsMessage(s.Logger, rec.Conn, protocol.NewError("You are already in a game.", true))
		return
	}
	s.Registry.SetName(rec.ID, name)

	stillFree := func(id int64) bool {
		if _, ok := s.Registry.Get(id); !ok {
			return false
		}
		_, inGame := s.Registry.DuelOf(id)
		return !inGame
	}

	opponentID, status := s.Matchmaker.Join(rec.ID, stillFree)
	switch status {
	case game.JoinParked:
		s.Logger.Infof("Player %d (%s) is waiting for an opponent.", rec.ID, name)
		sendWsMessage(s.Logger, rec.Conn, protocol.Waiting{Type: protocol.MsgWaiting, Message: "Waiting for an opponent..."})
	case game.JoinAlreadyWaiting:
		sendWsMessage(s.Logger, rec.Conn, protocol.Waiting{Type: protocol.MsgWaiting, Message: "You are already waiting for an opponent..."})
	case game.JoinReparked:
		s.Logger.Infof("Player %d (%s) replaced a stale waiting slot.", rec.ID, name)
		sendWsMessage(s.Logger, rec.Conn, protocol.Waiting{Type: protocol.MsgWaiting, Message: "Previous opponent unavailable, waiting for a new one..."})
	case game.JoinMatched:
		s.createDuel(ctx, opponentID, rec.ID)
	}
}

// createDuel builds the session for the two ids and pushes GAME_START to both.
// Caller holds matchMu.
func (s *GameServer) createDuel(ctx context.Context, waitingID, joinerID int64) {
	waitingRec, ok := s.Registry.Get(waitingID)
	if !ok {
		// The waiting side vanished between the liveness check and now; the
		// joiner takes the slot instead.
		s.Logger.Warnf("Matched player %d disappeared before duel creation; re-parking %d.", waitingID, joinerID)
		s.Matchmaker.Cancel(waitingID)
		if _, status := s.Matchmaker.Join(joinerID, nil); status == game.JoinParked {
			if rec, ok := s.Registry.Get(joinerID); ok {
				sendWsMessage(s.Logger, rec.Conn, protocol.Waiting{Type: protocol.MsgWaiting, Message: "Waiting for an opponent..."})
			}
		}
		return
	}
	joinerRec, ok := s.Registry.Get(joinerID)
	if !ok {
		s.Logger.Warnf("Joiner %d disappeared during duel creation.", joinerID)
		return
	}

	p1 := &models.PlayerState{ID: waitingID, Name: s.Registry.NameOf(waitingID)}
	p2 := &models.PlayerState{ID: joinerID, Name: s.Registry.NameOf(joinerID)}
	g := game.NewDuelGame(p1, p2)
	s.Duels.Add(g)
	s.Registry.BindDuel(waitingID, g.ID)
	s.Registry.BindDuel(joinerID, g.ID)
	s.Logger.Infof("Duel %s started: %s (%d) vs %s (%d).", g.ID, p1.Name, p1.ID, p2.Name, p2.ID)

	g.Mu.Lock()
	starts := map[int64]protocol.GameStart{
		waitingID: buildGameStart(g, waitingID),
		joinerID:  buildGameStart(g, joinerID),
	}
	g.Mu.Unlock()
	sendWsMessage(s.Logger, waitingRec.Conn, starts[waitingID])
	sendWsMessage(s.Logger, joinerRec.Conn, starts[joinerID])
}

// HandleSessionMessage routes an in-game action to the duel bound to the
// connection and broadcasts the resulting state.
func (s *GameServer) HandleSessionMessage(ctx context.Context, rec *ConnectionRecord, msg *protocol.ClientMessage) {
	duelID, inGame := s.Registry.DuelOf(rec.ID)
	if !inGame {
		sendWsMessage(s.Logger, rec.Conn, protocol.NewError("Not currently in a game.", true))
		return
	}
	g, ok := s.Duels.Get(duelID)
	if !ok {
		s.Logger.Errorf("Player %d bound to missing duel %s; clearing binding.", rec.ID, duelID)
		s.Registry.ClearDuel(rec.ID)
		sendWsMessage(s.Logger, rec.Conn, protocol.NewError("Internal server error: Player state missing.", true))
		return
	}

	g.Mu.Lock()
	var (
		outcome *game.ActionOutcome
		err     error
	)
	switch msg.Type {
	case protocol.MsgPlayCard:
		if msg.Card == nil {
			err = game.ValidationError("Card is required.")
		} else {
			outcome, err = g.HandlePlayCard(rec.ID, msg.Card.Suit, msg.Card.Rank)
		}
	case protocol.MsgDiscardCards:
		outcome, err = g.HandleDiscardCards(rec.ID, msg.Indices)
	case protocol.MsgRequestDraw:
		outcome, err = g.HandleRequestDraw(rec.ID, msg.Count)
	default:
		g.Mu.Unlock()
		sendWsMessage(s.Logger, rec.Conn, protocol.NewError(fmt.Sprintf("Unknown message type: %s", msg.Type), false))
		return
	}

	if err != nil {
		g.Mu.Unlock()
		var verr game.ValidationError
		if errors.As(err, &verr) {
			sendWsMessage(s.Logger, rec.Conn, protocol.NewError(string(verr), true))
		} else {
			s.Logger.Errorf("Duel %s: consistency error on %s from %d: %v", g.ID, msg.Type, rec.ID, err)
			sendWsMessage(s.Logger, rec.Conn, protocol.NewError("Internal server error: Player state missing.", true))
		}
		return
	}

	if g.Phase == game.PhaseOver {
		overs := s.buildGameOvers(g)
		result := *g.Result
		players := g.Players
		g.Mu.Unlock()
		s.finishDuel(ctx, g.ID, result, players, overs)
		return
	}

	updates := s.buildUpdates(g, outcome)
	g.Mu.Unlock()
	s.deliverUpdates(updates)
}

// HandleLeave processes a voluntary LEAVE_GAME. The leaver gets LEFT_GAME,
// the opponent gets PLAYER_DISCONNECTED, and the session ends as a forfeit.
func (s *GameServer) HandleLeave(ctx context.Context, rec *ConnectionRecord) {
	s.endSessionFor(ctx, rec.ID, fmt.Sprintf("%s left the game.", s.Registry.NameOf(rec.ID)))
	sendWsMessage(s.Logger, rec.Conn, protocol.LeftGame{Type: protocol.MsgLeftGame, Message: "You left the game."})
}

// HandleDisconnect is the read-loop exit path: free the matchmaking slot,
// forfeit any live session and drop the registry entry. The id is never
// handed out again.
func (s *GameServer) HandleDisconnect(rec *ConnectionRecord) {
	s.matchMu.Lock()
	s.Matchmaker.Cancel(rec.ID)
	s.matchMu.Unlock()

	name := s.Registry.NameOf(rec.ID)
	if name == "" {
		name = "Opponent"
	}
	s.endSessionFor(context.Background(), rec.ID, fmt.Sprintf("%s disconnected. Game ended.", name))
	s.Registry.Remove(rec.ID)
	s.Logger.Infof("Player %d disconnected. %d connection(s) remain.", rec.ID, s.Registry.Count())
}

// endSessionFor forfeits the session the player is in, if any, notifying the
// surviving opponent with the given message. No health-based winner is
// computed on this path.
func (s *GameServer) endSessionFor(ctx context.Context, leaverID int64, opponentNotice string) {
	duelID, inGame := s.Registry.DuelOf(leaverID)
	if !inGame {
		return
	}
	g, ok := s.Duels.Get(duelID)
	if !ok {
		s.Registry.ClearDuel(leaverID)
		return
	}

	g.Mu.Lock()
	g.HandleForfeit(leaverID)
	result := *g.Result
	players := g.Players
	opponent := g.Opponent(leaverID)
	g.Mu.Unlock()

	if opponent != nil {
		if oppRec, ok := s.Registry.Get(opponent.ID); ok {
			sendWsMessage(s.Logger, oppRec.Conn, protocol.PlayerDisconnected{
				Type:    protocol.MsgPlayerDisconnected,
				Message: opponentNotice,
			})
		}
	}
	s.finishDuel(ctx, duelID, result, players, nil)
}

// finishDuel sends any terminal messages, persists the outcome and releases
// the session so both ids can matchmake again.
func (s *GameServer) finishDuel(ctx context.Context, duelID uuid.UUID, result game.Result, players [2]*models.PlayerState, overs map[int64]protocol.GameOver) {
	for id, msg := range overs {
		if rec, ok := s.Registry.Get(id); ok {
			sendWsMessage(s.Logger, rec.Conn, msg)
		}
	}
	for _, p := range players {
		if p != nil {
			s.Registry.ClearDuel(p.ID)
		}
	}
	s.Duels.Delete(duelID)
	s.Logger.Infof("Duel %s finished: %s (%d live duel(s) remain)", duelID, result.Message, s.Duels.Len())

	outcome := database.DuelOutcome{
		WinnerID: result.WinnerID,
		Draw:     result.Draw,
		Forfeit:  result.Forfeit,
		Players:  players,
	}
	go func() {
		dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.RecordDuelResult(dbCtx, duelID, outcome); err != nil {
			s.Logger.Errorf("Failed to record result for duel %s: %v", duelID, err)
		}
	}()
}

// buildGameOvers builds the per-viewer terminal message. Health is clamped to
// zero here and nowhere else. Caller holds the session lock.
func (s *GameServer) buildGameOvers(g *game.DuelGame) map[int64]protocol.GameOver {
	overs := make(map[int64]protocol.GameOver, 2)
	for _, p := range g.Players {
		opp := g.Opponent(p.ID)
		overs[p.ID] = protocol.GameOver{
			Type:           protocol.MsgGameOver,
			Message:        g.Result.Message,
			PlayerHealth:   clampZero(p.Health),
			OpponentHealth: clampZero(opp.Health),
		}
	}
	return overs
}

type pendingUpdate struct {
	id      int64
	update  protocol.GameUpdate
	discard *protocol.DiscardRequired
}

// buildUpdates assembles the per-viewer GAME_UPDATE (plus DISCARD_REQUIRED
// for a player who owes cards) for an accepted, non-terminal action. Caller
// holds the session lock; delivery happens after it is released.
func (s *GameServer) buildUpdates(g *game.DuelGame, outcome *game.ActionOutcome) []pendingUpdate {
	updates := make([]pendingUpdate, 0, 2)
	for _, p := range g.Players {
		opp := g.Opponent(p.ID)
		msg := outcome.Message
		if msg == "" {
			msg = turnMessage(g, p, opp)
		}
		u := protocol.GameUpdate{
			Type:              protocol.MsgGameUpdate,
			PlayerHealth:      p.Health,
			OpponentHealth:    opp.Health,
			OpponentCardCount: opp.HandSize(),
			DiscardPile:       pileView(g),
			DeckCount:         len(g.Deck),
			IsYourTurn:        g.TurnOwner == p.ID && p.PendingDiscard == 0,
			Message:           msg,
		}
		if outcome.HandChanged[p.ID] {
			hand := make([]models.Card, len(p.Hand))
			copy(hand, p.Hand)
			u.Hand = &hand
		}
		pu := pendingUpdate{id: p.ID, update: u}
		if g.TurnOwner == p.ID && p.PendingDiscard > 0 {
			reason := p.DiscardReason
			if reason == "" {
				reason = "You must discard cards."
			}
			pu.discard = &protocol.DiscardRequired{
				Type:   protocol.MsgDiscardRequired,
				Count:  p.PendingDiscard,
				Reason: reason,
			}
		}
		updates = append(updates, pu)
	}
	return updates
}

func (s *GameServer) deliverUpdates(updates []pendingUpdate) {
	for _, pu := range updates {
		rec, ok := s.Registry.Get(pu.id)
		if !ok {
			s.Logger.Warnf("Cannot broadcast to player %d, connection gone.", pu.id)
			continue
		}
		sendWsMessage(s.Logger, rec.Conn, pu.update)
		if pu.discard != nil {
			sendWsMessage(s.Logger, rec.Conn, *pu.discard)
		}
	}
}

// buildGameStart assembles the initial view for one recipient. Caller holds
// the session lock.
func buildGameStart(g *game.DuelGame, viewerID int64) protocol.GameStart {
	p := g.PlayerByID(viewerID)
	opp := g.Opponent(viewerID)
	hand := make([]models.Card, len(p.Hand))
	copy(hand, p.Hand)

	msg := fmt.Sprintf("Game started vs %s! Waiting for %s.", opp.Name, opp.Name)
	if g.TurnOwner == viewerID {
		msg = fmt.Sprintf("Game started vs %s! Your turn.", opp.Name)
	}
	return protocol.GameStart{
		Type:              protocol.MsgGameStart,
		PlayerID:          viewerID,
		OpponentName:      opp.Name,
		Hand:              hand,
		PlayerHealth:      p.Health,
		OpponentHealth:    opp.Health,
		OpponentCardCount: opp.HandSize(),
		DiscardPile:       pileView(g),
		DeckCount:         len(g.Deck),
		IsYourTurn:        g.TurnOwner == viewerID,
		Message:           msg,
	}
}

// turnMessage is the fallback view text when an update carries no action
// message: who the session is waiting on, from the viewer's perspective.
func turnMessage(g *game.DuelGame, p, opp *models.PlayerState) string {
	switch {
	case p.PendingDiscard > 0:
		if p.DiscardReason != "" {
			return p.DiscardReason
		}
		return fmt.Sprintf("Waiting for You to discard %d...", p.PendingDiscard)
	case opp.PendingDiscard > 0:
		if opp.DiscardReason != "" {
			return opp.DiscardReason
		}
		return fmt.Sprintf("Waiting for %s to discard %d...", opp.Name, opp.PendingDiscard)
	case g.TurnOwner == p.ID:
		return "Your turn. Play a card."
	default:
		return fmt.Sprintf("Waiting for %s...", opp.Name)
	}
}

// pileView projects the discard pile down to what clients may see: the top
// card and the count.
func pileView(g *game.DuelGame) protocol.PileView {
	v := protocol.PileView{Count: len(g.DiscardPile)}
	if n := len(g.DiscardPile); n > 0 {
		top := g.DiscardPile[n-1]
		v.Top = &top
	}
	return v
}

func truncateName(raw string) string {
	name := []rune(strings.TrimSpace(raw))
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	return string(name)
}

func clampZero(h int) int {
	if h < 0 {
		return 0
	}
	return h
}
