// Package scoring owns the points rules: the 1500-point cap and the default
// award for games that finish without reporting a score.
package scoring

import "strings"

// MaxPoints is the most points any account can hold.
const MaxPoints = 1500

// DefaultFallback is awarded for a game type missing from fallbackScores.
const DefaultFallback = 10

// fallbackScores is what a round of each game is worth when the client does
// not report a score (memory and puzzle games have no natural score).
var fallbackScores = map[string]int{
	"quiz":            20,
	"trivia":          20,
	"prophets-quiz":   25,
	"pillars-quiz":    25,
	"quran-quiz":      25,
	"wordsearch":      15,
	"crossword":       20,
	"memory":          10,
	"matching":        10,
	"puzzle":          15,
	"story":           15,
	"story-quiz":      20,
	"dua-practice":    10,
	"arabic-alphabet": 10,
	"spin":            0,
}

// Award adds amount to current and clamps the result to [0, MaxPoints].
// Negative amounts are allowed (admin corrections) but never push below zero.
func Award(current, amount int) int {
	total := current + amount
	if total > MaxPoints {
		return MaxPoints
	}
	if total < 0 {
		return 0
	}
	return total
}

// FallbackScore returns the default award for gameType.
func FallbackScore(gameType string) int {
	if s, ok := fallbackScores[normalize(gameType)]; ok {
		return s
	}
	return DefaultFallback
}

// Resolve returns score when the client reported a positive one, otherwise
// the game's fallback.
func Resolve(gameType string, score int) int {
	if score > 0 {
		return score
	}
	return FallbackScore(gameType)
}

// Remaining is how many more points an account holding current can earn.
func Remaining(current int) int {
	if current >= MaxPoints {
		return 0
	}
	if current < 0 {
		return MaxPoints
	}
	return MaxPoints - current
}

func normalize(gameType string) string {
	return strings.ToLower(strings.TrimSpace(gameType))
}
