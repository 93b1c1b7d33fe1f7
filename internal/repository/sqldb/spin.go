package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
)

var _ repository.SpinRepository = (*SpinStore)(nil)

type SpinStore struct {
	db *DB
}

func (s *SpinStore) LastSpin(ctx context.Context, userID string) (*model.SpinReward, error) {
	var sp model.SpinReward
	err := s.db.x.GetContext(ctx, &sp,
		s.db.q(`SELECT id, user_id, label, points, spin_day, created_at FROM spin_rewards
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`),
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("spin", userID)
		}
		return nil, fmt.Errorf("sqldb: reading last spin of user %s: %w", userID, err)
	}
	return &sp, nil
}

// SaveSpin inserts the spin. The unique (user_id, spin_day) key makes a
// second spin on the same UTC day a conflict, even across instances.
func (s *SpinStore) SaveSpin(ctx context.Context, sp *model.SpinReward) error {
	sp.ID = xid.New().String()
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = time.Now()
	}
	sp.CreatedAt = sp.CreatedAt.UTC()
	sp.Day = sp.CreatedAt.Format(time.DateOnly)

	_, err := s.db.x.NamedExecContext(ctx,
		`INSERT INTO spin_rewards (id, user_id, label, points, spin_day, created_at)
		 VALUES (:id, :user_id, :label, :points, :spin_day, :created_at)`,
		sp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("spin", sp.UserID+"/"+sp.Day)
		}
		return fmt.Errorf("sqldb: inserting spin for user %s: %w", sp.UserID, err)
	}
	return nil
}

func (s *SpinStore) DeleteSpin(ctx context.Context, id string) error {
	res, err := s.db.x.ExecContext(ctx, s.db.q(`DELETE FROM spin_rewards WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqldb: deleting spin %s: %w", id, err)
	}
	return expectOne(res, "spin", id)
}
