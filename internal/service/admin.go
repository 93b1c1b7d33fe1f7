package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
)

// AdminService backs the admin console. Callers have already passed
// auth.RequireAdmin.
type AdminService struct {
	users  repository.UserRepository
	scores repository.ScoreRepository
	admins auth.AdminPolicy
	logger *slog.Logger
}

func NewAdminService(users repository.UserRepository, scores repository.ScoreRepository, admins auth.AdminPolicy, logger *slog.Logger) *AdminService {
	return &AdminService{users: users, scores: scores, admins: admins, logger: logger}
}

// ListUsers returns every account, highest points first.
func (s *AdminService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing users: %w", err)
	}
	return users, nil
}

// SetRole stores role for the user. Admin access is decided by the
// allowlist, so the stored role must agree with it: only allowlisted emails
// can be admins and they cannot be demoted here.
func (s *AdminService) SetRole(ctx context.Context, actor auth.Identity, id, role string) (*model.User, error) {
	if !auth.ValidRole(role) {
		return nil, apperror.ValidationFailed("role", fmt.Sprintf("must be %q or %q", auth.RoleUser, auth.RoleAdmin))
	}
	target, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	if want := s.admins.RoleFor(target.Email); role != want {
		if want == auth.RoleAdmin {
			return nil, apperror.ValidationFailed("role", "this email is on the admin allowlist; remove it from the allowlist to demote")
		}
		return nil, apperror.ValidationFailed("role", "only emails on the admin allowlist can be admins")
	}
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, fmt.Errorf("service/admin: updating role: %w", err)
	}

	s.logger.Info("role changed", slog.String("by", actor.Email), slog.String("userID", id), slog.String("role", role))
	return s.user(ctx, id)
}

func (s *AdminService) ResetPoints(ctx context.Context, actor auth.Identity, id string) (*model.User, error) {
	if err := s.users.SetPoints(ctx, id, 0); err != nil {
		return nil, fmt.Errorf("service/admin: resetting points: %w", err)
	}

	s.logger.Info("points reset", slog.String("by", actor.Email), slog.String("userID", id))
	return s.user(ctx, id)
}

// DeleteUser removes the account, then clears its scores. The score cleanup
// is best effort: a failure is logged and the delete still succeeds.
func (s *AdminService) DeleteUser(ctx context.Context, actor auth.Identity, id string) error {
	if id == actor.UserID {
		return apperror.ValidationFailed("id", "admins cannot delete their own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/admin: deleting user: %w", err)
	}
	if err := s.scores.DeleteScoresByUser(ctx, id); err != nil {
		s.logger.Warn("score cleanup failed", slog.String("userID", id), slog.String("error", err.Error()))
	}

	s.logger.Info("user deleted", slog.String("by", actor.Email), slog.String("userID", id))
	return nil
}

func (s *AdminService) QuizAnswers(ctx context.Context, storyID string, opts repository.ListOptions) ([]model.QuizAnswer, error) {
	answers, err := s.scores.ListQuizAnswers(ctx, storyID, opts.Normalize())
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing quiz answers: %w", err)
	}
	return answers, nil
}

func (s *AdminService) RecentScores(ctx context.Context, opts repository.ListOptions) ([]model.GameScore, error) {
	scores, err := s.scores.ListScores(ctx, opts.Normalize())
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing scores: %w", err)
	}
	return scores, nil
}

func (s *AdminService) user(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/admin: fetching user %s: %w", id, err)
	}
	return u, nil
}
