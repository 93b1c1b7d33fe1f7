// Package wordsearch builds word-search puzzles: words hidden in a square
// letter grid, horizontally (left to right) or vertically (top to bottom).
//
// Placement is a bounded random search. Each word gets up to MaxAttempts
// random positions; a position is accepted when every cell it covers is
// empty or already holds the same letter. A word that exhausts its attempts
// is reported in Grid.Unplaced rather than failing the whole puzzle.
package wordsearch

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"unicode"
)

const (
	MinWords    = 4
	MaxWords    = 10
	MinSize     = 8
	MaxSize     = 20
	DefaultSize = 12
	MaxAttempts = 1000
)

var (
	ErrWordCount   = fmt.Errorf("wordsearch: need between %d and %d words", MinWords, MaxWords)
	ErrGridSize    = fmt.Errorf("wordsearch: size must be between %d and %d", MinSize, MaxSize)
	ErrWordTooLong = errors.New("wordsearch: word does not fit in the grid")
)

type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// Placement locates one hidden word by its first letter.
type Placement struct {
	Word      string    `json:"word"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Direction Direction `json:"direction"`
}

// Grid is a finished puzzle.
type Grid struct {
	Size       int         `json:"size"`
	Cells      [][]string  `json:"cells"`
	Placements []Placement `json:"placements"`
	Unplaced   []string    `json:"unplaced,omitempty"`
}

// Normalize upper-cases w and drops everything that is not an ASCII letter,
// so "Al-Fatiha" becomes "ALFATIHA".
func Normalize(w string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(w) {
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Generate builds a size×size puzzle hiding words. rng must not be nil;
// callers seed it (tests use a fixed seed).
func Generate(words []string, size int, rng *rand.Rand) (*Grid, error) {
	if size < MinSize || size > MaxSize {
		return nil, ErrGridSize
	}

	clean := prepare(words)
	if len(clean) < MinWords || len(clean) > MaxWords {
		return nil, ErrWordCount
	}
	for _, w := range clean {
		if len(w) > size {
			return nil, fmt.Errorf("%w: %q is longer than %d", ErrWordTooLong, w, size)
		}
	}

	cells := make([][]byte, size)
	for i := range cells {
		cells[i] = make([]byte, size)
	}

	g := &Grid{Size: size}
	for _, w := range clean {
		p, ok := place(cells, w, rng)
		if !ok {
			g.Unplaced = append(g.Unplaced, w)
			continue
		}
		g.Placements = append(g.Placements, p)
	}

	g.Cells = make([][]string, size)
	for r := range cells {
		g.Cells[r] = make([]string, size)
		for c := range cells[r] {
			if cells[r][c] == 0 {
				cells[r][c] = byte('A' + rng.Intn(26))
			}
			g.Cells[r][c] = string(cells[r][c])
		}
	}

	return g, nil
}

// prepare normalizes, drops empties and duplicates, and orders longest first
// since long words are the hardest to fit late.
func prepare(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		n := Normalize(w)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func place(cells [][]byte, word string, rng *rand.Rand) (Placement, bool) {
	size := len(cells)
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		dir := Horizontal
		if rng.Intn(2) == 1 {
			dir = Vertical
		}

		var row, col int
		if dir == Horizontal {
			row = rng.Intn(size)
			col = rng.Intn(size - len(word) + 1)
		} else {
			row = rng.Intn(size - len(word) + 1)
			col = rng.Intn(size)
		}

		if !fits(cells, word, row, col, dir) {
			continue
		}

		for i := 0; i < len(word); i++ {
			r, c := step(row, col, dir, i)
			cells[r][c] = word[i]
		}
		return Placement{Word: word, Row: row, Col: col, Direction: dir}, true
	}
	return Placement{}, false
}

func fits(cells [][]byte, word string, row, col int, dir Direction) bool {
	for i := 0; i < len(word); i++ {
		r, c := step(row, col, dir, i)
		if cur := cells[r][c]; cur != 0 && cur != word[i] {
			return false
		}
	}
	return true
}

func step(row, col int, dir Direction, i int) (int, int) {
	if dir == Horizontal {
		return row, col + i
	}
	return row + i, col
}
