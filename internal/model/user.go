// Package model defines the records the service stores and returns.
package model

import "time"

// User is an account. Points are capped at scoring.MaxPoints; Role is one of
// auth.RoleUser or auth.RoleAdmin.
type User struct {
	ID           string     `json:"id"                  db:"id"`
	Email        string     `json:"email"               db:"email"`
	FullName     string     `json:"full_name"           db:"full_name"`
	Role         string     `json:"role"                db:"role"`
	Points       int        `json:"points"              db:"points"`
	LastAward    *time.Time `json:"last_award,omitempty" db:"last_award"`
	AvatarURL    string     `json:"avatar_url,omitempty" db:"avatar_url"`
	PasswordHash string     `json:"-"                   db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"          db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"          db:"updated_at"`
}

// LeaderboardEntry is the public projection of a user: no email.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Points   int    `json:"points"`
	IsMe     bool   `json:"is_me,omitempty"`
}
