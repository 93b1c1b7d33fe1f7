package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
	"github.com/islamkidszone/kidszone-api/internal/scoring"
)

var _ repository.UserRepository = (*UserStore)(nil)

type UserStore struct {
	db *DB
}

const userColumns = `id, email, full_name, role, points, last_award, avatar_url, password_hash, created_at, updated_at`

// Create inserts a new user, assigning timestamps and, unless the caller
// supplied one, an ID. The email is stored lower-cased; a second account with
// the same email is a conflict.
func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = xid.New().String()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.x.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (:id, :email, :full_name, :role, :points, :last_award, :avatar_url, :password_hash, :created_at, :updated_at)`,
		u,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", u.Email)
		}
		return fmt.Errorf("sqldb: inserting user %s: %w", u.Email, err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.x.GetContext(ctx, &u, s.db.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqldb: getting user %s: %w", id, err)
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var u model.User
	err := s.db.x.GetContext(ctx, &u, s.db.q(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqldb: getting user by email %s: %w", email, err)
	}
	return &u, nil
}

// UpsertByEmail keeps the existing ID, role, points and password. Only the
// profile fields coming from the identity provider are refreshed. On return u
// holds the stored row.
func (s *UserStore) UpsertByEmail(ctx context.Context, u *model.User) error {
	existing, err := s.GetByEmail(ctx, u.Email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	if existing == nil {
		if err := s.Create(ctx, u); err != nil {
			return err
		}
		return nil
	}

	existing.UpdatedAt = time.Now().UTC()
	if u.FullName != "" {
		existing.FullName = u.FullName
	}
	if u.AvatarURL != "" {
		existing.AvatarURL = u.AvatarURL
	}

	_, err = s.db.x.ExecContext(ctx,
		s.db.q(`UPDATE users SET full_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`),
		existing.FullName, existing.AvatarURL, existing.UpdatedAt, existing.ID,
	)
	if err != nil {
		return fmt.Errorf("sqldb: updating user %s: %w", existing.ID, err)
	}

	*u = *existing
	return nil
}

func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := s.db.x.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users ORDER BY points DESC, full_name ASC, created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing users: %w", err)
	}
	return users, nil
}

func (s *UserStore) UpdateRole(ctx context.Context, id, role string) error {
	res, err := s.db.x.ExecContext(ctx,
		s.db.q(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`),
		role, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqldb: updating role of user %s: %w", id, err)
	}
	return expectOne(res, "user", id)
}

// SetPoints overwrites the balance. Used by admins to reset a user.
func (s *UserStore) SetPoints(ctx context.Context, id string, points int) error {
	if points < 0 || points > scoring.MaxPoints {
		return apperror.ValidationFailed("points", fmt.Sprintf("must be between 0 and %d", scoring.MaxPoints))
	}

	res, err := s.db.x.ExecContext(ctx,
		s.db.q(`UPDATE users SET points = ?, updated_at = ? WHERE id = ?`),
		points, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqldb: setting points of user %s: %w", id, err)
	}
	return expectOne(res, "user", id)
}

// AwardPoints reads the balance, caps the new total with scoring.Award and
// writes it back in one transaction. Postgres locks the row; SQLite has a
// single connection so the transaction is already exclusive.
func (s *UserStore) AwardPoints(ctx context.Context, id string, amount int, at time.Time) (int, error) {
	tx, err := s.db.x.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqldb: beginning award tx: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT points FROM users WHERE id = ?`
	if s.db.Driver() == DriverPostgres {
		query += ` FOR UPDATE`
	}

	var current int
	if err := tx.GetContext(ctx, &current, tx.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperror.NotFound("user", id)
		}
		return 0, fmt.Errorf("sqldb: reading points of user %s: %w", id, err)
	}

	total := scoring.Award(current, amount)
	at = at.UTC()

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`UPDATE users SET points = ?, last_award = ?, updated_at = ? WHERE id = ?`),
		total, at, at, id,
	)
	if err != nil {
		return 0, fmt.Errorf("sqldb: writing points of user %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqldb: committing award tx: %w", err)
	}
	return total, nil
}

// Delete removes the user with their quiz answers, progress and spins.
// Game scores are cleared separately through ScoreStore.DeleteScoresByUser;
// messages are kept for the admins.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.x.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqldb: beginning delete tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"quiz_answers", "game_progress", "spin_rewards"} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+table+` WHERE user_id = ?`), id); err != nil {
			return fmt.Errorf("sqldb: deleting %s of user %s: %w", table, id, err)
		}
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqldb: deleting user %s: %w", id, err)
	}
	if err := expectOne(res, "user", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqldb: committing delete tx: %w", err)
	}
	return nil
}
