package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankValue(t *testing.T) {
	assert.Equal(t, 1, RankValue("A"))
	assert.Equal(t, 7, RankValue("7"))
	assert.Equal(t, 10, RankValue("10"))
	assert.Equal(t, 10, RankValue("J"))
	assert.Equal(t, 10, RankValue("Q"))
	assert.Equal(t, 10, RankValue("K"))
	assert.Equal(t, 0, RankValue("joker"))
}

func TestNewCardFillsValue(t *testing.T) {
	c := NewCard(SuitSpades, "Q")
	assert.Equal(t, SuitSpades, c.Suit)
	assert.Equal(t, "Q", c.Rank)
	assert.Equal(t, 10, c.Value)
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "K♥", NewCard(SuitHearts, "K").String())
	assert.Equal(t, "A♠", NewCard(SuitSpades, "A").String())
	assert.Equal(t, "10♣", NewCard(SuitClubs, "10").String())
}
