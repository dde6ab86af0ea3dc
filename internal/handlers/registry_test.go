package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRegistryAssignsMonotonicIDs(t *testing.T) {
	r := NewConnectionRegistry()

	a := r.Register(nil)
	b := r.Register(nil)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	// Ids are never reused, even after the holder disconnects.
	r.Remove(a.ID)
	c := r.Register(nil)
	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, 2, r.Count())
}

func TestRegistryNameAndDuelBinding(t *testing.T) {
	r := NewConnectionRegistry()
	rec := r.Register(nil)

	assert.Equal(t, "", r.NameOf(rec.ID))
	r.SetName(rec.ID, "Alice")
	assert.Equal(t, "Alice", r.NameOf(rec.ID))

	_, inGame := r.DuelOf(rec.ID)
	assert.False(t, inGame)

	duelID := uuid.New()
	r.BindDuel(rec.ID, duelID)
	got, inGame := r.DuelOf(rec.ID)
	assert.True(t, inGame)
	assert.Equal(t, duelID, got)

	r.ClearDuel(rec.ID)
	_, inGame = r.DuelOf(rec.ID)
	assert.False(t, inGame)
}

func TestRegistryGetAfterRemove(t *testing.T) {
	r := NewConnectionRegistry()
	rec := r.Register(nil)

	_, ok := r.Get(rec.ID)
	assert.True(t, ok)

	r.Remove(rec.ID)
	_, ok = r.Get(rec.ID)
	assert.False(t, ok)

	// Operations on a removed id are no-ops.
	r.SetName(rec.ID, "ghost")
	assert.Equal(t, "", r.NameOf(rec.ID))
}
