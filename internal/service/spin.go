package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
)

// Segment is one slice of the reward wheel. Weight is relative.
type Segment struct {
	Label  string `json:"label"`
	Points int    `json:"points"`
	Weight int    `json:"-"`
}

// DefaultWheel favours small rewards; the big one comes up about once in
// fifty spins.
var DefaultWheel = []Segment{
	{Label: "5 points", Points: 5, Weight: 30},
	{Label: "10 points", Points: 10, Weight: 30},
	{Label: "15 points", Points: 15, Weight: 20},
	{Label: "25 points", Points: 25, Weight: 12},
	{Label: "50 points", Points: 50, Weight: 6},
	{Label: "100 points", Points: 100, Weight: 2},
}

type SpinStatus struct {
	Available  bool              `json:"available"`
	NextSpinAt *time.Time        `json:"next_spin_at,omitempty"`
	Last       *model.SpinReward `json:"last,omitempty"`
	Wheel      []Segment         `json:"wheel"`
}

type SpinResult struct {
	Reward      *model.SpinReward `json:"reward"`
	TotalPoints int               `json:"total_points"`
}

// SpinService runs the daily reward wheel: one spin per user per UTC day.
type SpinService struct {
	spins    repository.SpinRepository
	users    repository.UserRepository
	accounts *Accounts
	wheel    []Segment
	logger   *slog.Logger
	now      func() time.Time

	// mu serializes check-then-spin on this instance and guards rng. Across
	// instances the unique (user_id, spin_day) key decides.
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSpinService(
	spins repository.SpinRepository,
	users repository.UserRepository,
	accounts *Accounts,
	rng *rand.Rand,
	logger *slog.Logger,
) *SpinService {
	return &SpinService{
		spins:    spins,
		users:    users,
		accounts: accounts,
		wheel:    DefaultWheel,
		logger:   logger,
		now:      time.Now,
		rng:      rng,
	}
}

var errAlreadySpun = &apperror.AppError{Err: apperror.ErrConflict, Message: "you already spun the wheel today, come back tomorrow"}

func (s *SpinService) Status(ctx context.Context, id auth.Identity) (*SpinStatus, error) {
	user, err := s.accounts.Ensure(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.status(ctx, user.ID)
}

func (s *SpinService) status(ctx context.Context, userID string) (*SpinStatus, error) {
	now := s.now().UTC()

	last, err := s.spins.LastSpin(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &SpinStatus{Available: true, Wheel: s.wheel}, nil
		}
		return nil, fmt.Errorf("service/spin: reading last spin: %w", err)
	}

	st := &SpinStatus{Available: true, Last: last, Wheel: s.wheel}
	if sameUTCDay(last.CreatedAt, now) {
		next := startOfNextUTCDay(now)
		st.Available = false
		st.NextSpinAt = &next
	}
	return st, nil
}

// Spin picks a weighted segment, records it and awards the points (capped).
// The spin row claims the day; if the award then fails it is removed again so
// the child can retry.
func (s *SpinService) Spin(ctx context.Context, id auth.Identity) (*SpinResult, error) {
	user, err := s.accounts.Ensure(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.status(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !st.Available {
		return nil, errAlreadySpun
	}

	seg := s.pick()
	now := s.now().UTC()

	reward := &model.SpinReward{UserID: user.ID, Label: seg.Label, Points: seg.Points, CreatedAt: now}
	if err := s.spins.SaveSpin(ctx, reward); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, errAlreadySpun
		}
		return nil, fmt.Errorf("service/spin: saving spin: %w", err)
	}

	total, err := s.users.AwardPoints(ctx, user.ID, seg.Points, now)
	if err != nil {
		if delErr := s.spins.DeleteSpin(ctx, reward.ID); delErr != nil {
			s.logger.Error("orphan spin left after failed award",
				slog.String("spinID", reward.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("service/spin: awarding points: %w", err)
	}

	s.logger.Info("wheel spun", slog.String("userID", user.ID), slog.Int("points", seg.Points), slog.Int("total", total))
	return &SpinResult{Reward: reward, TotalPoints: total}, nil
}

// pick must be called with mu held.
func (s *SpinService) pick() Segment {
	sum := 0
	for _, seg := range s.wheel {
		sum += seg.Weight
	}
	n := s.rng.Intn(sum)
	for _, seg := range s.wheel {
		if n < seg.Weight {
			return seg
		}
		n -= seg.Weight
	}
	return s.wheel[len(s.wheel)-1]
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func startOfNextUTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
