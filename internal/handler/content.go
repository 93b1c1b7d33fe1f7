package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/service"
)

// ContentHandler serves the public learning content: quizzes, stories,
// games and the Quran dictionary. Nothing here needs a signed-in user.
type ContentHandler struct {
	quizzes *service.QuizService
	stories *service.StoryService
	games   *service.GameService
	logger  *slog.Logger
}

func NewContentHandler(quizzes *service.QuizService, stories *service.StoryService, games *service.GameService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{quizzes: quizzes, stories: stories, games: games, logger: logger}
}

func (h *ContentHandler) HandleListQuizzes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.quizzes.List())
}

func (h *ContentHandler) HandleGetQuiz(w http.ResponseWriter, r *http.Request) {
	q, err := h.quizzes.Get(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *ContentHandler) HandleListStories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stories.List())
}

func (h *ContentHandler) HandleStartStory(w http.ResponseWriter, r *http.Request) {
	step, err := h.stories.Start(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

type chooseRequest struct {
	NodeID string `json:"node_id" validate:"required"`
	Choice *int   `json:"choice"  validate:"required"`
}

// HandleChoose is POST /api/stories/{id}/choose with {"node_id", "choice"}.
func (h *ContentHandler) HandleChoose(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	step, err := h.stories.Choose(chi.URLParam(r, "id"), req.NodeID, *req.Choice)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// HandleDictionary is GET /api/dictionary?q=...&limit=...
func (h *ContentHandler) HandleDictionary(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	words, err := h.games.SearchDictionary(r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, words)
}

func (h *ContentHandler) HandleSurahs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.games.Surahs())
}

func (h *ContentHandler) HandleSurah(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("surah", "surah must be a number"))
		return
	}

	words, err := h.games.Surah(n)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, words)
}

func (h *ContentHandler) HandleThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.games.Themes())
}

// HandleWordSearch is GET /api/games/wordsearch?theme=...&size=...
func (h *ContentHandler) HandleWordSearch(w http.ResponseWriter, r *http.Request) {
	size, err := queryInt(r, "size", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	puzzle, err := h.games.WordSearch(r.URL.Query().Get("theme"), size)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, puzzle)
}
