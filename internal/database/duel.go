// internal/database/duel.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/suitduel/internal/models"
)

// DuelOutcome is the persisted summary of a finished duel. Healths are
// stored as the session saw them internally (unclamped), which is what the
// sudden-death tie-break was decided on.
type DuelOutcome struct {
	WinnerID int64
	Draw     bool
	Forfeit  bool
	Players  [2]*models.PlayerState
}

// RecordDuelResult upserts the duel row as completed and writes one result
// row per player. Best effort: callers log and move on if it fails.
func RecordDuelResult(ctx context.Context, duelID uuid.UUID, outcome DuelOutcome) error {
	if DB == nil {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertDuel := `
			INSERT INTO duels (id, status, forfeit, end_time)
			VALUES ($1, 'completed', $2, NOW())
			ON CONFLICT (id) DO UPDATE SET status = 'completed', forfeit = $2, end_time = NOW()
		`
		if _, e := tx.Exec(ctx, upsertDuel, duelID, outcome.Forfeit); e != nil {
			return e
		}

		for _, pl := range outcome.Players {
			didWin := !outcome.Draw && pl.ID == outcome.WinnerID
			q := `
				INSERT INTO duel_results (duel_id, player_id, player_name, final_health, hand_size, did_win, draw)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (duel_id, player_id)
				DO UPDATE SET final_health = $4, hand_size = $5, did_win = $6, draw = $7
			`
			if _, e := tx.Exec(ctx, q, duelID, pl.ID, pl.Name, pl.Health, len(pl.Hand), didWin, outcome.Draw); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert duel or results: %w", err)
	}
	return nil
}
