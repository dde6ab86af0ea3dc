package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/suitduel/internal/models"
)

func TestDecodeClientMessagePlayCard(t *testing.T) {
	raw := []byte(`{"type":"PLAY_CARD","card":{"suit":"Spades","rank":"7"}}`)
	msg, err := DecodeClientMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, MsgPlayCard, msg.Type)
	require.NotNil(t, msg.Card)
	assert.Equal(t, "Spades", msg.Card.Suit)
	assert.Equal(t, "7", msg.Card.Rank)
}

func TestDecodeClientMessageDiscard(t *testing.T) {
	raw := []byte(`{"type":"DISCARD_CARDS","indices":[0,2,4]}`)
	msg, err := DecodeClientMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, msg.Indices)
}

func TestDecodeClientMessageRejectsUnknownType(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"HACK_THE_DECK"}`))
	assert.ErrorIs(t, err, ErrUnknownType)
	// The tag is still available for the error reply.
	require.NotNil(t, msg)
	assert.Equal(t, "HACK_THE_DECK", msg.Type)
}

func TestDecodeClientMessageRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"type":`))
	assert.ErrorContains(t, err, "malformed message")
}

func TestGameUpdateOmitsHandWhenUnchanged(t *testing.T) {
	u := GameUpdate{Type: MsgGameUpdate, Message: "x"}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"hand"`)

	hand := []models.Card{models.NewCard(models.SuitHearts, "2")}
	u.Hand = &hand
	data, err = json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hand"`)
}

func TestPileViewOmitsTopWhenEmpty(t *testing.T) {
	data, err := json.Marshal(PileView{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":0}`, string(data))

	top := models.NewCard(models.SuitClubs, "9")
	data, err = json.Marshal(PileView{Top: &top, Count: 3})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"9"`)
	assert.Contains(t, string(data), `"count":3`)
}

func TestNewErrorCarriesUnlockFlag(t *testing.T) {
	e := NewError("Not your turn.", true)
	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ERROR","message":"Not your turn.","unlockAction":true}`, string(data))

	// The flag is omitted entirely when false.
	data, err = json.Marshal(NewError("Invalid message format.", false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ERROR","message":"Invalid message format."}`, string(data))
}
