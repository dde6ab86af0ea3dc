package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedisAndPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("HISTORIAN_QUEUE_NAME", "")

	require.NoError(t, ConnectRedis())
	t.Cleanup(func() {
		Rdb.Close()
		Rdb = nil
	})

	duelID := uuid.New()
	rec := DuelActionRecord{
		DuelID:      duelID,
		ActionIndex: 1,
		ActorID:     42,
		ActionType:  "play_card",
		ActionPayload: map[string]interface{}{
			"suit": "Spades", "rank": "7",
		},
		Timestamp: 1700000000000,
	}
	require.NoError(t, PublishDuelAction(context.Background(), rec))

	vals, err := mr.List(DefaultQueueName)
	require.NoError(t, err)
	require.Len(t, vals, 1)

	var got DuelActionRecord
	require.NoError(t, json.Unmarshal([]byte(vals[0]), &got))
	assert.Equal(t, duelID, got.DuelID)
	assert.Equal(t, int64(42), got.ActorID)
	assert.Equal(t, "play_card", got.ActionType)
	assert.Equal(t, "Spades", got.ActionPayload["suit"])
}

func TestPublishHonorsQueueNameOverride(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("HISTORIAN_QUEUE_NAME", "custom_queue")

	require.NoError(t, ConnectRedis())
	t.Cleanup(func() {
		Rdb.Close()
		Rdb = nil
	})

	rec := DuelActionRecord{DuelID: uuid.New(), ActionType: "game_end"}
	require.NoError(t, PublishDuelAction(context.Background(), rec))

	vals, err := mr.List("custom_queue")
	require.NoError(t, err)
	assert.Len(t, vals, 1)
}
