// Package repository declares the storage interfaces the services depend on.
// The sqldb package implements them over SQLite or Postgres.
package repository

import (
	"context"
	"time"

	"github.com/islamkidszone/kidszone-api/internal/model"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListOptions pages a listing, newest first.
type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize applies DefaultLimit and MaxLimit and clamps a negative offset.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertByEmail creates the user or refreshes name and avatar of the
	// existing row. Role, points and password are never overwritten.
	UpsertByEmail(ctx context.Context, user *model.User) error
	// List returns every user, highest points first, ties by name.
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id, role string) error
	SetPoints(ctx context.Context, id string, points int) error
	// AwardPoints adds amount to the user's points inside a transaction,
	// capped to the allowed range, and returns the new total.
	AwardPoints(ctx context.Context, id string, amount int, at time.Time) (int, error)
	Delete(ctx context.Context, id string) error
}

type ScoreRepository interface {
	SaveScore(ctx context.Context, score *model.GameScore) error
	ListScoresByUser(ctx context.Context, userID string, opts ListOptions) ([]model.GameScore, error)
	ListScores(ctx context.Context, opts ListOptions) ([]model.GameScore, error)
	DeleteScoresByUser(ctx context.Context, userID string) error
	SaveQuizAnswer(ctx context.Context, answer *model.QuizAnswer) error
	// ListQuizAnswers filters by story when storyID is not empty.
	ListQuizAnswers(ctx context.Context, storyID string, opts ListOptions) ([]model.QuizAnswer, error)
}

type ProgressRepository interface {
	RecordPlay(ctx context.Context, userID, gameType string, score int, at time.Time) error
	ListProgress(ctx context.Context, userID string) ([]model.GameProgress, error)
}

type SpinRepository interface {
	// LastSpin returns apperror.ErrNotFound when the user never spun.
	LastSpin(ctx context.Context, userID string) (*model.SpinReward, error)
	// SaveSpin returns apperror.ErrConflict when the user already has a spin
	// on the same UTC day.
	SaveSpin(ctx context.Context, spin *model.SpinReward) error
	DeleteSpin(ctx context.Context, id string) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	List(ctx context.Context, unreadOnly bool) ([]model.Message, error)
	SetRead(ctx context.Context, id string, read bool) error
	Delete(ctx context.Context, id string) error
}
