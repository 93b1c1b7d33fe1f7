package service

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/content"
	"github.com/islamkidszone/kidszone-api/internal/wordsearch"
)

// QuranSurahs is the number of surahs; valid surah numbers are 1..QuranSurahs.
const QuranSurahs = 114

type WordSearchPuzzle struct {
	Theme string           `json:"theme"`
	Title string           `json:"title"`
	Grid  *wordsearch.Grid `json:"grid"`
}

// GameService builds puzzles and answers dictionary lookups.
type GameService struct {
	catalog *content.Catalog

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewGameService uses rng for puzzle layout; tests pass a seeded one.
func NewGameService(catalog *content.Catalog, rng *rand.Rand) *GameService {
	return &GameService{catalog: catalog, rng: rng}
}

func (s *GameService) Themes() []content.Theme {
	return s.catalog.Themes()
}

// WordSearch builds a puzzle from a theme. An empty theme picks one at random;
// size 0 means wordsearch.DefaultSize.
func (s *GameService) WordSearch(themeSlug string, size int) (*WordSearchPuzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var theme *content.Theme
	if themeSlug == "" {
		themes := s.catalog.Themes()
		if len(themes) == 0 {
			return nil, apperror.NotFound("theme", "any")
		}
		theme = &themes[s.rng.Intn(len(themes))]
	} else {
		t, ok := s.catalog.Theme(themeSlug)
		if !ok {
			return nil, apperror.NotFound("theme", themeSlug)
		}
		theme = t
	}

	if size == 0 {
		size = wordsearch.DefaultSize
	}

	grid, err := wordsearch.Generate(theme.Words, size, s.rng)
	if err != nil {
		switch {
		case errors.Is(err, wordsearch.ErrGridSize):
			return nil, apperror.ValidationFailed("size", err.Error())
		case errors.Is(err, wordsearch.ErrWordTooLong), errors.Is(err, wordsearch.ErrWordCount):
			return nil, apperror.ValidationFailed("theme", err.Error())
		}
		return nil, fmt.Errorf("service/game: generating word search: %w", err)
	}

	return &WordSearchPuzzle{Theme: theme.Slug, Title: theme.Title, Grid: grid}, nil
}

func (s *GameService) SearchDictionary(query string, limit int) ([]content.Word, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperror.ValidationFailed("q", "search text is required")
	}
	return s.catalog.SearchWords(query, limit), nil
}

// Surahs lists the surahs the dictionary covers.
func (s *GameService) Surahs() []content.Surah {
	return s.catalog.Surahs()
}

func (s *GameService) Surah(n int) ([]content.Word, error) {
	if n < 1 || n > QuranSurahs {
		return nil, apperror.ValidationFailed("surah", fmt.Sprintf("must be between 1 and %d", QuranSurahs))
	}
	words := s.catalog.SurahWords(n)
	if len(words) == 0 {
		return nil, apperror.NotFound("surah", fmt.Sprint(n))
	}
	return words, nil
}
