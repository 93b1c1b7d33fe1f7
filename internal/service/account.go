package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
)

// Accounts resolves a verified identity to its stored user. Tokens signed by
// the hosted identity provider carry a subject this service has never seen,
// so the row is created on first use.
type Accounts struct {
	users  repository.UserRepository
	admins auth.AdminPolicy
	logger *slog.Logger
}

func NewAccounts(users repository.UserRepository, admins auth.AdminPolicy, logger *slog.Logger) *Accounts {
	return &Accounts{users: users, admins: admins, logger: logger}
}

// Ensure returns the user behind id. Lookup is by subject first, then by the
// verified email; when neither exists the account is created with the
// subject as its ID and the role the allowlist gives the email.
func (a *Accounts) Ensure(ctx context.Context, id auth.Identity) (*model.User, error) {
	if id.UserID == "" {
		return nil, apperror.Unauthorized("not signed in")
	}

	user, err := a.users.GetByID(ctx, id.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/account: fetching user %s: %w", id.UserID, err)
	}
	if id.Email == "" {
		return nil, apperror.Unauthorized("token has no email to create an account from")
	}

	user, err = a.users.GetByEmail(ctx, id.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/account: fetching user %s: %w", id.Email, err)
	}

	user = &model.User{ID: id.UserID, Email: id.Email, Role: a.admins.RoleFor(id.Email)}
	if err := a.users.Create(ctx, user); err != nil {
		// Lost a race with another request for the same account.
		if errors.Is(err, apperror.ErrConflict) {
			return a.users.GetByEmail(ctx, id.Email)
		}
		return nil, fmt.Errorf("service/account: provisioning user %s: %w", id.Email, err)
	}

	a.logger.Info("account provisioned from token", slog.String("userID", user.ID), slog.String("role", user.Role))
	return user, nil
}
