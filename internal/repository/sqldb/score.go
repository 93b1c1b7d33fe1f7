package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
)

var _ repository.ScoreRepository = (*ScoreStore)(nil)

type ScoreStore struct {
	db *DB
}

const (
	scoreColumns  = `id, user_id, user_email, game_type, score, answers, metadata, created_at`
	answerColumns = `id, story_id, user_id, user_email, answers, score, total, created_at`
)

// SaveScore records a finished round. CreatedAt is kept when set so callers
// can stamp the row with the same instant they award points at.
func (s *ScoreStore) SaveScore(ctx context.Context, sc *model.GameScore) error {
	sc.ID = xid.New().String()
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now()
	}
	sc.CreatedAt = sc.CreatedAt.UTC()

	_, err := s.db.x.NamedExecContext(ctx,
		`INSERT INTO game_scores (`+scoreColumns+`)
		 VALUES (:id, :user_id, :user_email, :game_type, :score, :answers, :metadata, :created_at)`,
		sc,
	)
	if err != nil {
		return fmt.Errorf("sqldb: inserting score for user %s: %w", sc.UserID, err)
	}
	return nil
}

func (s *ScoreStore) ListScoresByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.GameScore, error) {
	opts = opts.Normalize()

	scores := make([]model.GameScore, 0, opts.Limit)
	err := s.db.x.SelectContext(ctx, &scores,
		s.db.q(`SELECT `+scoreColumns+` FROM game_scores
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`),
		userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing scores of user %s: %w", userID, err)
	}
	return scores, nil
}

func (s *ScoreStore) ListScores(ctx context.Context, opts repository.ListOptions) ([]model.GameScore, error) {
	opts = opts.Normalize()

	scores := make([]model.GameScore, 0, opts.Limit)
	err := s.db.x.SelectContext(ctx, &scores,
		s.db.q(`SELECT `+scoreColumns+` FROM game_scores ORDER BY created_at DESC LIMIT ? OFFSET ?`),
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing scores: %w", err)
	}
	return scores, nil
}

func (s *ScoreStore) DeleteScoresByUser(ctx context.Context, userID string) error {
	if _, err := s.db.x.ExecContext(ctx, s.db.q(`DELETE FROM game_scores WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("sqldb: deleting scores of user %s: %w", userID, err)
	}
	return nil
}

func (s *ScoreStore) SaveQuizAnswer(ctx context.Context, a *model.QuizAnswer) error {
	a.ID = xid.New().String()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()

	_, err := s.db.x.NamedExecContext(ctx,
		`INSERT INTO quiz_answers (`+answerColumns+`)
		 VALUES (:id, :story_id, :user_id, :user_email, :answers, :score, :total, :created_at)`,
		a,
	)
	if err != nil {
		return fmt.Errorf("sqldb: inserting quiz answer for story %s: %w", a.StoryID, err)
	}
	return nil
}

func (s *ScoreStore) ListQuizAnswers(ctx context.Context, storyID string, opts repository.ListOptions) ([]model.QuizAnswer, error) {
	opts = opts.Normalize()

	query := `SELECT ` + answerColumns + ` FROM quiz_answers`
	args := []any{}
	if storyID != "" {
		query += ` WHERE story_id = ?`
		args = append(args, storyID)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	answers := make([]model.QuizAnswer, 0, opts.Limit)
	if err := s.db.x.SelectContext(ctx, &answers, s.db.q(query), args...); err != nil {
		return nil, fmt.Errorf("sqldb: listing quiz answers: %w", err)
	}
	return answers, nil
}
