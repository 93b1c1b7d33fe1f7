package content

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadEmbedded(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load(Embedded(), discardLogger())
	require.NoError(t, err)
	return c
}

func TestLoad_Embedded(t *testing.T) {
	var buf bytes.Buffer
	c, err := Load(Embedded(), slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, err)

	assert.NotEmpty(t, c.Quizzes())
	assert.NotEmpty(t, c.Stories())
	assert.NotEmpty(t, c.Themes())
	assert.NotContains(t, buf.String(), "structural problem", "shipped stories must be well formed")
}

func TestCatalog_Lookups(t *testing.T) {
	c := loadEmbedded(t)

	q, ok := c.Quiz("five-pillars")
	require.True(t, ok)
	assert.Equal(t, "pillars-quiz", q.GameType)
	assert.Len(t, q.Questions, 6)

	_, ok = c.Quiz("nope")
	assert.False(t, ok)

	s, ok := c.Story("yunus-whale")
	require.True(t, ok)
	assert.Equal(t, "town", s.StartNode)

	th, ok := c.Theme("prophets")
	require.True(t, ok)
	assert.Contains(t, th.Words, "YUNUS")
}

func TestCatalog_SurahWords(t *testing.T) {
	c := loadEmbedded(t)

	words := c.SurahWords(112)
	require.Len(t, words, 15)
	assert.Equal(t, "qul", words[0].Transliteration)
	assert.Equal(t, 4, words[len(words)-1].Ayah)

	assert.Len(t, c.SurahWords(1), 29)
	assert.Empty(t, c.SurahWords(2))
}

func TestCatalog_SearchWords(t *testing.T) {
	c := loadEmbedded(t)

	tests := []struct {
		name  string
		query string
		limit int
		want  int
	}{
		{"transliteration", "rahim", 0, 2},
		{"meaning is case-insensitive", "MERCIFUL", 0, 2},
		{"limit applies", "allah", 2, 2},
		{"arabic", "ٱلصَّمَدُ", 0, 1},
		{"blank query", "   ", 0, 0},
		{"no match", "zebra", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.SearchWords(tt.query, tt.limit)
			assert.Len(t, got, tt.want)
		})
	}

	got := c.SearchWords("allah", 2)
	for _, w := range got {
		assert.Equal(t, 1, w.Surah, "results keep reading order")
	}
}

func testFS(stories string) fstest.MapFS {
	return fstest.MapFS{
		quizzesFile:    {Data: []byte(`{"quizzes":[{"slug":"q","questions":[{"prompt":"?","options":["a","b"],"answer":1}]}]}`)},
		storiesFile:    {Data: []byte(stories)},
		dictionaryFile: {Data: []byte(`{"surahs":[],"words":[{"surah":2,"ayah":1,"position":1,"transliteration":"alif"},{"surah":1,"ayah":1,"position":1,"transliteration":"bismi"}]}`)},
		themesFile:     {Data: []byte(`{"themes":[]}`)},
	}
}

func TestLoad_FromDirectory(t *testing.T) {
	c, err := Load(testFS(`{"stories":[]}`), discardLogger())
	require.NoError(t, err)

	words := c.SearchWords("i", 0)
	require.Len(t, words, 2)
	assert.Equal(t, "bismi", words[0].Transliteration, "words are sorted into reading order")
}

func TestLoad_LogsBrokenStories(t *testing.T) {
	var buf bytes.Buffer
	fsys := testFS(`{"stories":[{"id":"s","start_node":"a","nodes":[{"id":"a","choices":[{"text":"go","next_node":"b"}]}]}]}`)

	c, err := Load(fsys, slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, err)

	_, ok := c.Story("s")
	assert.True(t, ok, "broken stories still load")
	assert.Contains(t, buf.String(), "missing node")
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		fsys := testFS(`{"stories":[]}`)
		delete(fsys, themesFile)
		_, err := Load(fsys, discardLogger())
		assert.ErrorContains(t, err, themesFile)
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := Load(testFS(`{"stories":`), discardLogger())
		assert.ErrorContains(t, err, storiesFile)
	})

	t.Run("answer out of range", func(t *testing.T) {
		fsys := testFS(`{"stories":[]}`)
		fsys[quizzesFile] = &fstest.MapFile{Data: []byte(`{"quizzes":[{"slug":"q","questions":[{"prompt":"?","options":["a"],"answer":3}]}]}`)}
		_, err := Load(fsys, discardLogger())
		assert.ErrorContains(t, err, "out of range")
	})
}
