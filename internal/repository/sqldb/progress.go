package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
)

var _ repository.ProgressRepository = (*ProgressStore)(nil)

type ProgressStore struct {
	db *DB
}

// RecordPlay bumps the play counter for (userID, gameType), keeps the best
// score and remembers the latest one. The upsert syntax is shared by SQLite
// 3.24+ and Postgres.
func (s *ProgressStore) RecordPlay(ctx context.Context, userID, gameType string, score int, at time.Time) error {
	_, err := s.db.x.ExecContext(ctx, s.db.q(`
		INSERT INTO game_progress (user_id, game_type, plays, best_score, last_score, last_played)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT (user_id, game_type) DO UPDATE SET
			plays       = game_progress.plays + 1,
			best_score  = CASE WHEN excluded.best_score > game_progress.best_score
			                   THEN excluded.best_score ELSE game_progress.best_score END,
			last_score  = excluded.last_score,
			last_played = excluded.last_played`),
		userID, gameType, score, score, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqldb: recording %s play for user %s: %w", gameType, userID, err)
	}
	return nil
}

func (s *ProgressStore) ListProgress(ctx context.Context, userID string) ([]model.GameProgress, error) {
	progress := []model.GameProgress{}
	err := s.db.x.SelectContext(ctx, &progress,
		s.db.q(`SELECT user_id, game_type, plays, best_score, last_score, last_played
		 FROM game_progress WHERE user_id = ? ORDER BY last_played DESC`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing progress of user %s: %w", userID, err)
	}
	return progress, nil
}
