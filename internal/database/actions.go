// internal/database/actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/xerekinha/pyramid/internal/cache"
)

// EndActionType marks the last action of a finished game.
const EndActionType = "game_end"

const (
	upsertGameQ = `
		INSERT INTO room_games (game_id, room_code, status, start_time)
		VALUES ($1, $2, 'in_progress', $3)
		ON CONFLICT (game_id) DO NOTHING`
	insertActionQ = `
		INSERT INTO room_actions (game_id, action_index, actor_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING`
	finalizeGameQ = `
		UPDATE room_games
		SET status = 'completed', end_time = $2
		WHERE game_id = $1 AND status = 'in_progress'`
	abandonGameQ = `
		UPDATE room_games
		SET status = 'abandoned', end_time = NOW()
		WHERE game_id = $1 AND status = 'in_progress'`
)

// Store persists room actions.
type Store struct {
	db DB
}

// NewStore wraps db, usually a *pgxpool.Pool.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// buildActionBatch queues the statements for recs. Each record upserts its
// game row, inserts the action, and closes the game on EndActionType.
func buildActionBatch(recs []cache.ActionRecord) (*pgx.Batch, error) {
	b := &pgx.Batch{}
	for _, rec := range recs {
		at := time.UnixMilli(rec.Timestamp).UTC()
		payload, err := json.Marshal(rec.ActionPayload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload of %s #%d: %w", rec.GameID, rec.ActionIndex, err)
		}
		var actor *uuid.UUID
		if rec.ActorID != uuid.Nil {
			id := rec.ActorID
			actor = &id
		}

		b.Queue(upsertGameQ, rec.GameID, rec.RoomCode, at)
		b.Queue(insertActionQ, rec.GameID, rec.ActionIndex, actor, rec.ActionType, payload, at)
		if rec.ActionType == EndActionType {
			b.Queue(finalizeGameQ, rec.GameID, at)
		}
	}
	return b, nil
}

// InsertActions writes recs in one transaction.
func (s *Store) InsertActions(ctx context.Context, recs []cache.ActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	b, err := buildActionBatch(recs)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, b)
		for i := 0; i < b.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("batch statement %d: %w", i, err)
			}
		}
		return br.Close()
	})
}

// MarkAbandoned closes a game that is still in progress. It reports whether
// a row changed.
func (s *Store) MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, abandonGameQ, gameID)
	if err != nil {
		return false, fmt.Errorf("mark game %s abandoned: %w", gameID, err)
	}
	return tag.RowsAffected() > 0, nil
}
