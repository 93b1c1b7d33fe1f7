package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMap is a free-form JSON object stored in a TEXT column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for TEXT and BLOB columns.
func (m *JSONMap) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return errors.New("model: unsupported JSONMap source")
	}
	if len(b) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(b, m)
}

// GameScore is one finished round of a game.
type GameScore struct {
	ID        string    `json:"id"         db:"id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	UserEmail string    `json:"userEmail"  db:"user_email"`
	GameType  string    `json:"gameType"   db:"game_type"`
	Score     int       `json:"score"      db:"score"`
	Answers   JSONMap   `json:"answers"    db:"answers"`
	Metadata  JSONMap   `json:"metadata"   db:"metadata"`
	CreatedAt time.Time `json:"timestamp"  db:"created_at"`
}

// QuizAnswer is a child's answers to the comprehension questions at the end
// of a story.
type QuizAnswer struct {
	ID        string    `json:"id"        db:"id"`
	StoryID   string    `json:"storyId"   db:"story_id"`
	UserID    string    `json:"user_id"   db:"user_id"`
	UserEmail string    `json:"userEmail" db:"user_email"`
	Answers   JSONMap   `json:"answers"   db:"answers"`
	Score     int       `json:"score"     db:"score"`
	Total     int       `json:"total"     db:"total"`
	CreatedAt time.Time `json:"timestamp" db:"created_at"`
}

// GameProgress is the per-user, per-game counter row.
type GameProgress struct {
	UserID     string    `json:"user_id"     db:"user_id"`
	GameType   string    `json:"gameType"    db:"game_type"`
	Plays      int       `json:"plays"       db:"plays"`
	BestScore  int       `json:"best_score"  db:"best_score"`
	LastScore  int       `json:"last_score"  db:"last_score"`
	LastPlayed time.Time `json:"last_played" db:"last_played"`
}

// SpinReward is one spin of the daily reward wheel. Day is the UTC date of
// CreatedAt ("2006-01-02"); a user has at most one spin per Day.
type SpinReward struct {
	ID        string    `json:"id"         db:"id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	Label     string    `json:"label"      db:"label"`
	Points    int       `json:"points"     db:"points"`
	Day       string    `json:"-"          db:"spin_day"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
