package model

import "time"

// Message is a note sent from a family to the site admins.
type Message struct {
	ID        string    `json:"id"         db:"id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	UserEmail string    `json:"user_email" db:"user_email"`
	Content   string    `json:"content"    db:"content"`
	Read      bool      `json:"read"       db:"is_read"`
	CreatedAt time.Time `json:"createdAt"  db:"created_at"`
}
