// Package content holds the read-only learning material: quizzes, branching
// stories, the Quran word dictionary and word-search themes.
//
// The material ships embedded in the binary. Setting CONTENT_DIR points the
// loader at a directory with the same file layout instead, which lets editors
// try new stories without a rebuild.
package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/islamkidszone/kidszone-api/internal/story"
)

//go:embed data/*.json
var embedded embed.FS

const (
	quizzesFile    = "quizzes.json"
	storiesFile    = "stories.json"
	dictionaryFile = "dictionary.json"
	themesFile     = "themes.json"

	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// Question is one multiple-choice question. Answer indexes Options.
type Question struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

type Quiz struct {
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	GameType  string     `json:"game_type"`
	AgeRange  string     `json:"age_range,omitempty"`
	Questions []Question `json:"questions"`
}

// Word is one word of an ayah, positioned 1-based within the ayah.
type Word struct {
	Surah           int    `json:"surah"`
	Ayah            int    `json:"ayah"`
	Position        int    `json:"position"`
	Arabic          string `json:"arabic"`
	Transliteration string `json:"transliteration"`
	Meaning         string `json:"meaning"`
	Root            string `json:"root,omitempty"`
}

type Surah struct {
	Number  int    `json:"number"`
	Name    string `json:"name"`
	Meaning string `json:"meaning"`
}

// Theme is a named word list for the word-search game.
type Theme struct {
	Slug  string   `json:"slug"`
	Title string   `json:"title"`
	Words []string `json:"words"`
}

// Catalog is the loaded material. It is immutable after Load and safe for
// concurrent use.
type Catalog struct {
	quizzes []Quiz
	stories []story.Story
	surahs  []Surah
	words   []Word
	themes  []Theme
}

// Embedded returns the material compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return sub
}

// Load reads every content file from fsys. Story graph problems are logged,
// not fatal; a broken choice fails closed when a child takes it.
func Load(fsys fs.FS, logger *slog.Logger) (*Catalog, error) {
	var (
		quizzes struct {
			Quizzes []Quiz `json:"quizzes"`
		}
		stories struct {
			Stories []story.Story `json:"stories"`
		}
		dict struct {
			Surahs []Surah `json:"surahs"`
			Words  []Word  `json:"words"`
		}
		themes struct {
			Themes []Theme `json:"themes"`
		}
	)

	for name, dst := range map[string]any{
		quizzesFile:    &quizzes,
		storiesFile:    &stories,
		dictionaryFile: &dict,
		themesFile:     &themes,
	} {
		if err := readJSON(fsys, name, dst); err != nil {
			return nil, err
		}
	}

	for i := range quizzes.Quizzes {
		q := &quizzes.Quizzes[i]
		for j, question := range q.Questions {
			if question.Answer < 0 || question.Answer >= len(question.Options) {
				return nil, fmt.Errorf("content: quiz %q question %d: answer index %d out of range", q.Slug, j, question.Answer)
			}
		}
	}

	for i := range stories.Stories {
		s := &stories.Stories[i]
		for _, p := range story.Validate(s) {
			logger.Warn("story has a structural problem", "story", s.ID, "problem", p)
		}
	}

	sort.SliceStable(dict.Words, func(i, j int) bool {
		a, b := dict.Words[i], dict.Words[j]
		if a.Surah != b.Surah {
			return a.Surah < b.Surah
		}
		if a.Ayah != b.Ayah {
			return a.Ayah < b.Ayah
		}
		return a.Position < b.Position
	})

	c := &Catalog{
		quizzes: quizzes.Quizzes,
		stories: stories.Stories,
		surahs:  dict.Surahs,
		words:   dict.Words,
		themes:  themes.Themes,
	}

	logger.Info("content loaded",
		"quizzes", len(c.quizzes),
		"stories", len(c.stories),
		"words", len(c.words),
		"themes", len(c.themes),
	)
	return c, nil
}

func readJSON(fsys fs.FS, name string, dst any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("content: reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("content: decoding %s: %w", name, err)
	}
	return nil
}

func (c *Catalog) Quizzes() []Quiz { return c.quizzes }

func (c *Catalog) Quiz(slug string) (*Quiz, bool) {
	for i := range c.quizzes {
		if c.quizzes[i].Slug == slug {
			return &c.quizzes[i], true
		}
	}
	return nil, false
}

func (c *Catalog) Stories() []story.Story { return c.stories }

func (c *Catalog) Story(id string) (*story.Story, bool) {
	for i := range c.stories {
		if c.stories[i].ID == id {
			return &c.stories[i], true
		}
	}
	return nil, false
}

func (c *Catalog) Surahs() []Surah { return c.surahs }

// SearchWords matches query case-insensitively against the transliteration
// and meaning, or as a substring of the Arabic text. Results keep Quran order.
// limit <= 0 means DefaultSearchLimit; it is capped at MaxSearchLimit.
func (c *Catalog) SearchWords(query string, limit int) []Word {
	raw := strings.TrimSpace(query)
	q := strings.ToLower(raw)
	if q == "" {
		return []Word{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	out := []Word{}
	for _, w := range c.words {
		if strings.Contains(strings.ToLower(w.Transliteration), q) ||
			strings.Contains(strings.ToLower(w.Meaning), q) ||
			strings.Contains(w.Arabic, raw) {
			out = append(out, w)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// SurahWords returns every word of surah n in reading order.
func (c *Catalog) SurahWords(n int) []Word {
	out := []Word{}
	for _, w := range c.words {
		if w.Surah == n {
			out = append(out, w)
		}
	}
	return out
}

func (c *Catalog) Themes() []Theme { return c.themes }

func (c *Catalog) Theme(slug string) (*Theme, bool) {
	for i := range c.themes {
		if c.themes[i].Slug == slug {
			return &c.themes[i], true
		}
	}
	return nil, false
}
