package handlers

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/suitduel/internal/game"
	"github.com/jason-s-yu/suitduel/internal/models"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "Alice", truncateName("Alice"))
	assert.Equal(t, "Alice", truncateName("  Alice  "))
	assert.Equal(t, "", truncateName("   "))
	assert.Equal(t, "ABCDEFGHIJKLMNO", truncateName("ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	// Rune-aware, not byte-aware.
	assert.Equal(t, "ééééééééééééééé", truncateName("éééééééééééééééé"))
}

func TestClampZero(t *testing.T) {
	assert.Equal(t, 0, clampZero(-5))
	assert.Equal(t, 0, clampZero(0))
	assert.Equal(t, 7, clampZero(7))
}

func newHandlerTestDuel(t *testing.T) *game.DuelGame {
	t.Helper()
	p1 := &models.PlayerState{ID: 1, Name: "Alice"}
	p2 := &models.PlayerState{ID: 2, Name: "Bob"}
	return game.NewDuelGameWithSeed(p1, p2, 5)
}

func TestBuildGameStartViews(t *testing.T) {
	g := newHandlerTestDuel(t)

	g.Mu.Lock()
	v1 := buildGameStart(g, 1)
	v2 := buildGameStart(g, 2)
	g.Mu.Unlock()

	assert.Equal(t, int64(1), v1.PlayerID)
	assert.Equal(t, "Bob", v1.OpponentName)
	assert.Equal(t, "Alice", v2.OpponentName)
	assert.Len(t, v1.Hand, game.StartingHandSize)
	assert.Equal(t, game.StartingHandSize, v1.OpponentCardCount)
	assert.Equal(t, 42, v1.DeckCount)
	assert.Equal(t, game.StartingHealth, v1.PlayerHealth)
	assert.Equal(t, game.StartingHealth, v1.OpponentHealth)

	// Exactly one side starts with the turn, and the message matches it.
	assert.NotEqual(t, v1.IsYourTurn, v2.IsYourTurn)
	if v1.IsYourTurn {
		assert.Contains(t, v1.Message, "Your turn.")
		assert.Contains(t, v2.Message, "Waiting for Alice.")
	} else {
		assert.Contains(t, v2.Message, "Your turn.")
		assert.Contains(t, v1.Message, "Waiting for Bob.")
	}

	// The start pile is empty; no top card leaks.
	assert.Nil(t, v1.DiscardPile.Top)
	assert.Equal(t, 0, v1.DiscardPile.Count)
}

func TestBuildUpdatesIncludesHandOnlyWhenChanged(t *testing.T) {
	s := NewGameServer(newTestLogger())
	g := newHandlerTestDuel(t)

	g.Mu.Lock()
	actor := g.PlayerByID(g.TurnOwner)
	c := actor.Hand[0]
	outcome, err := g.HandlePlayCard(actor.ID, c.Suit, c.Rank)
	require.NoError(t, err)
	require.NotEqual(t, game.PhaseOver, g.Phase)

	updates := s.buildUpdates(g, outcome)
	g.Mu.Unlock()
	require.Len(t, updates, 2)

	for _, pu := range updates {
		if pu.id == actor.ID {
			require.NotNil(t, pu.update.Hand, "actor's hand changed and must be present")
			assert.Len(t, *pu.update.Hand, len(actor.Hand))
		} else {
			assert.Nil(t, pu.update.Hand, "bystander hand must be omitted")
		}
		assert.Equal(t, 1, pu.update.DiscardPile.Count)
		assert.Equal(t, c.Suit, pu.update.DiscardPile.Top.Suit)
		assert.Contains(t, pu.update.Message, "played")
	}
}

func TestBuildGameOversClampHealth(t *testing.T) {
	s := NewGameServer(newTestLogger())
	g := newHandlerTestDuel(t)

	g.Mu.Lock()
	g.Players[0].Health = -3
	g.Players[1].Health = 4
	g.Phase = game.PhaseOver
	g.Result = &game.Result{WinnerID: 2, Message: "Game Over! Bob wins!"}
	overs := s.buildGameOvers(g)
	g.Mu.Unlock()

	require.Len(t, overs, 2)
	assert.Equal(t, 0, overs[1].PlayerHealth)
	assert.Equal(t, 4, overs[1].OpponentHealth)
	assert.Equal(t, 4, overs[2].PlayerHealth)
	assert.Equal(t, 0, overs[2].OpponentHealth)
	assert.Equal(t, "Game Over! Bob wins!", overs[1].Message)
}
