package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
	"github.com/islamkidszone/kidszone-api/internal/service"
)

// PlayHandler covers everything that earns or shows points.
type PlayHandler struct {
	quizzes *service.QuizService
	stories *service.StoryService
	scores  *service.ScoreService
	spins   *service.SpinService
	logger  *slog.Logger
}

func NewPlayHandler(
	quizzes *service.QuizService,
	stories *service.StoryService,
	scores *service.ScoreService,
	spins *service.SpinService,
	logger *slog.Logger,
) *PlayHandler {
	return &PlayHandler{quizzes: quizzes, stories: stories, scores: scores, spins: spins, logger: logger}
}

type answersRequest struct {
	Answers []int `json:"answers"`
}

type scoreRequest struct {
	GameType string        `json:"gameType" validate:"required,max=50"`
	Score    int           `json:"score"    validate:"min=0"`
	Answers  model.JSONMap `json:"answers"`
	Metadata model.JSONMap `json:"metadata"`
}

// HandleSubmitQuiz is POST /api/quizzes/{slug}/submit with {"answers": [..]}.
func (h *PlayHandler) HandleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req answersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.quizzes.Submit(r.Context(), id, chi.URLParam(r, "slug"), req.Answers)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleStoryAnswers is POST /api/stories/{id}/answers.
func (h *PlayHandler) HandleStoryAnswers(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req answersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.stories.SubmitAnswers(r.Context(), id, chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSubmitScore records a finished round of any game.
//
// HTTP: POST /api/scores
func (h *PlayHandler) HandleSubmitScore(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.scores.SubmitScore(r.Context(), id, service.ScoreInput{
		GameType: req.GameType,
		Score:    req.Score,
		Answers:  req.Answers,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleMyScores is GET /api/scores/me?limit=&offset=
func (h *PlayHandler) HandleMyScores(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	scores, err := h.scores.MyScores(r.Context(), id, opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h *PlayHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	progress, err := h.scores.MyProgress(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// HandleLeaderboard is public: it shows names and points, never emails. A
// signed-in caller sees their own entry flagged.
func (h *PlayHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var viewer string
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		viewer = id.UserID
	}

	board, err := h.scores.Leaderboard(r.Context(), limit, viewer)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *PlayHandler) HandleSpinStatus(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	st, err := h.spins.Status(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *PlayHandler) HandleSpin(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.spins.Spin(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func listOptions(r *http.Request) (repository.ListOptions, error) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return repository.ListOptions{}, err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return repository.ListOptions{}, err
	}
	return repository.ListOptions{Limit: limit, Offset: offset}.Normalize(), nil
}
