package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
	"github.com/islamkidszone/kidszone-api/internal/scoring"
)

const (
	MaxGameTypeLength       = 50
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// ScoreInput is a finished round. Client-reported rounds with no score earn
// the game's fallback; Graded rounds were scored on the server and earn
// exactly Score, zero included.
type ScoreInput struct {
	GameType string
	Score    int
	Graded   bool
	Answers  model.JSONMap
	Metadata model.JSONMap
}

// ScoreResult reports what a round was worth and the new balance.
type ScoreResult struct {
	Score       *model.GameScore `json:"score"`
	Awarded     int              `json:"awarded"`
	TotalPoints int              `json:"total_points"`
	Remaining   int              `json:"remaining"`
}

// ScoreService is the only path by which points are earned. Every award goes
// through UserRepository.AwardPoints, which applies the cap.
type ScoreService struct {
	users    repository.UserRepository
	scores   repository.ScoreRepository
	progress repository.ProgressRepository
	accounts *Accounts
	logger   *slog.Logger
	now      func() time.Time
}

func NewScoreService(
	users repository.UserRepository,
	scores repository.ScoreRepository,
	progress repository.ProgressRepository,
	accounts *Accounts,
	logger *slog.Logger,
) *ScoreService {
	return &ScoreService{users: users, scores: scores, progress: progress, accounts: accounts, logger: logger, now: time.Now}
}

// SubmitScore awards points, then stores the round and bumps per-game
// progress. Awarding first means a caller without an account never leaves
// score or progress rows behind.
func (s *ScoreService) SubmitScore(ctx context.Context, id auth.Identity, in ScoreInput) (*ScoreResult, error) {
	gameType := strings.ToLower(strings.TrimSpace(in.GameType))
	if gameType == "" {
		return nil, apperror.ValidationFailed("gameType", "game type is required")
	}
	if len(gameType) > MaxGameTypeLength {
		return nil, apperror.ValidationFailed("gameType", fmt.Sprintf("must be %d characters or fewer", MaxGameTypeLength))
	}
	if in.Score < 0 || in.Score > scoring.MaxPoints {
		return nil, apperror.ValidationFailed("score", fmt.Sprintf("must be between 0 and %d", scoring.MaxPoints))
	}

	award := in.Score
	if !in.Graded {
		award = scoring.Resolve(gameType, in.Score)
	}

	user, err := s.accounts.Ensure(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	total, err := s.users.AwardPoints(ctx, user.ID, award, now)
	if err != nil {
		return nil, fmt.Errorf("service/score: awarding points: %w", err)
	}

	sc := &model.GameScore{
		UserID:    user.ID,
		UserEmail: user.Email,
		GameType:  gameType,
		Score:     award,
		Answers:   in.Answers,
		Metadata:  in.Metadata,
		CreatedAt: now,
	}
	if err := s.scores.SaveScore(ctx, sc); err != nil {
		return nil, fmt.Errorf("service/score: saving score: %w", err)
	}

	if err := s.progress.RecordPlay(ctx, user.ID, gameType, award, now); err != nil {
		return nil, fmt.Errorf("service/score: recording progress: %w", err)
	}

	s.logger.Info("score submitted",
		slog.String("userID", user.ID),
		slog.String("gameType", gameType),
		slog.Int("awarded", award),
		slog.Int("total", total),
	)

	return &ScoreResult{Score: sc, Awarded: award, TotalPoints: total, Remaining: scoring.Remaining(total)}, nil
}

func (s *ScoreService) MyScores(ctx context.Context, id auth.Identity, opts repository.ListOptions) ([]model.GameScore, error) {
	user, err := s.accounts.Ensure(ctx, id)
	if err != nil {
		return nil, err
	}
	scores, err := s.scores.ListScoresByUser(ctx, user.ID, opts.Normalize())
	if err != nil {
		return nil, fmt.Errorf("service/score: listing scores: %w", err)
	}
	return scores, nil
}

func (s *ScoreService) MyProgress(ctx context.Context, id auth.Identity) ([]model.GameProgress, error) {
	user, err := s.accounts.Ensure(ctx, id)
	if err != nil {
		return nil, err
	}
	progress, err := s.progress.ListProgress(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/score: listing progress: %w", err)
	}
	return progress, nil
}

// Leaderboard returns the top accounts without their emails. Equal points
// share a rank (1, 2, 2, 4). viewerID, when not empty, marks the caller's own
// entry.
func (s *ScoreService) Leaderboard(ctx context.Context, limit int, viewerID string) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/score: listing users: %w", err)
	}
	if len(users) > limit {
		users = users[:limit]
	}

	board := make([]model.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		rank := i + 1
		if i > 0 && u.Points == users[i-1].Points {
			rank = board[i-1].Rank
		}
		name := u.FullName
		if name == "" {
			name = "Young learner"
		}
		board = append(board, model.LeaderboardEntry{
			Rank:     rank,
			UserID:   u.ID,
			FullName: name,
			Points:   u.Points,
			IsMe:     viewerID != "" && u.ID == viewerID,
		})
	}
	return board, nil
}
