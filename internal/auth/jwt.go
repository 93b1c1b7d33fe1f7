// Package auth verifies and issues bearer tokens and decides who is an admin.
//
// TOKEN FORMAT:
// Tokens are HS256 JWTs. The same secret is shared with the hosted identity
// provider (Supabase signs its access tokens with the project JWT secret),
// so a token minted by the provider and a token minted by this service's own
// sign-up/login endpoints are verified by exactly the same code path.
//
//	{"sub": "<user id>", "email": "kid@example.com", "role": "user", "exp": ...}
//
// The admin decision is NOT read from the "role" claim. It is recomputed from
// the verified email on every request against the configured allowlist
// (see AdminPolicy), so a stale or forged role claim grants nothing.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of tokens issued by this service.
const DefaultTokenTTL = 24 * time.Hour

// Identity is the verified caller, extracted from a bearer token.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a TokenService. issuer may be empty, in which case
// the "iss" claim is neither set nor checked.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Generate signs a token for id with the default lifetime.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, DefaultTokenTTL)
}

// GenerateWithDuration signs a token for id that expires after d.
// Tests use a negative d to produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email: strings.ToLower(id.Email),
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity it carries.
//
// Only HS256 is accepted (jwt.WithValidMethods blocks "none" and algorithm
// swapping), expiry is mandatory, and the issuer is checked when one is
// configured.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}
	if c.Email == "" {
		return Identity{}, fmt.Errorf("auth: token has no email")
	}

	return Identity{
		UserID: c.Subject,
		Email:  strings.ToLower(strings.TrimSpace(c.Email)),
		Role:   c.Role,
	}, nil
}
