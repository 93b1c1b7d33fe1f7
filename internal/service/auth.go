// Package service holds the business rules. Handlers parse HTTP and call in
// here; services talk to storage only through the repository interfaces, so
// the tests swap in in-memory fakes.
//
//	Handler (HTTP) → Service (rules) → Repository (SQL)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
)

const MaxNameLength = 100

// errBadCredentials is deliberately the same for an unknown email and a wrong
// password.
var errBadCredentials = apperror.Unauthorized("invalid email or password")

// AuthService signs users up and in and issues their tokens.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	admins    auth.AdminPolicy
	accounts  *Accounts
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	admins auth.AdminPolicy,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		admins:    admins,
		accounts:  NewAccounts(users, admins, logger),
		logger:    logger,
	}
}

// AuthResult bundles the user with a freshly issued token.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// SignUp creates a password account. Accounts on the admin allowlist start
// with the admin role; everyone else is a user.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)

	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, apperror.ValidationFailed("password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordLength {
		return nil, apperror.ValidationFailed("password", fmt.Sprintf("must be %d characters or fewer", auth.MaxPasswordLength))
	}
	if len(fullName) > MaxNameLength {
		return nil, apperror.ValidationFailed("full_name", fmt.Sprintf("must be %d characters or fewer", MaxNameLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		FullName:     fullName,
		Role:         s.admins.RoleFor(email),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "an account with this email already exists", Field: "email"}
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID), slog.String("role", user.Role))
	return s.issue(user)
}

// Login checks an email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	// Google accounts have no password.
	if user.PasswordHash == "" {
		return nil, errBadCredentials
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginGoogle signs in (and on first visit, registers) a verified Google
// account.
func (s *AuthService) LoginGoogle(ctx context.Context, g *auth.GoogleUser) (*AuthResult, error) {
	if g == nil || g.Email == "" {
		return nil, fmt.Errorf("service/auth: google user must have an email")
	}

	user := &model.User{
		Email:     g.Email,
		FullName:  g.Name,
		AvatarURL: g.Picture,
		Role:      s.admins.RoleFor(g.Email),
	}
	if err := s.users.UpsertByEmail(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting google user: %w", err)
	}

	s.logger.Info("user authenticated via Google", slog.String("userID", user.ID))
	return s.issue(user)
}

// Me loads the account behind a validated token, creating it on first use
// for tokens issued by the hosted identity provider.
func (s *AuthService) Me(ctx context.Context, id auth.Identity) (*model.User, error) {
	return s.accounts.Ensure(ctx, id)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(auth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
