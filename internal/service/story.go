package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/content"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
	"github.com/islamkidszone/kidszone-api/internal/story"
)

type StorySummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	AgeRange      string `json:"age_range,omitempty"`
	QuizQuestions int    `json:"quiz_questions"`
}

// StoryStep is one scene. The comprehension quiz is attached when the scene
// is an ending.
type StoryStep struct {
	StoryID string           `json:"story_id"`
	Node    *story.Node      `json:"node"`
	Quiz    []PublicQuestion `json:"quiz,omitempty"`
}

type StoryQuizResult struct {
	Correct     int `json:"correct"`
	Total       int `json:"total"`
	Awarded     int `json:"awarded"`
	TotalPoints int `json:"total_points"`
}

// StoryService walks stories. Walking is stateless: the client sends back
// the node it is on with the choice it made.
type StoryService struct {
	catalog *content.Catalog
	answers repository.ScoreRepository
	scores  *ScoreService
	logger  *slog.Logger
}

func NewStoryService(catalog *content.Catalog, answers repository.ScoreRepository, scores *ScoreService, logger *slog.Logger) *StoryService {
	return &StoryService{catalog: catalog, answers: answers, scores: scores, logger: logger}
}

func (s *StoryService) List() []StorySummary {
	stories := s.catalog.Stories()
	out := make([]StorySummary, 0, len(stories))
	for _, st := range stories {
		out = append(out, StorySummary{
			ID:            st.ID,
			Title:         st.Title,
			Description:   st.Description,
			AgeRange:      st.AgeRange,
			QuizQuestions: len(st.Quiz),
		})
	}
	return out
}

func (s *StoryService) Start(id string) (*StoryStep, error) {
	st, err := s.story(id)
	if err != nil {
		return nil, err
	}
	node, err := story.Start(st)
	if err != nil {
		return nil, s.mapStoryError(st, err)
	}
	return s.step(st, node), nil
}

func (s *StoryService) Choose(id, nodeID string, choice int) (*StoryStep, error) {
	st, err := s.story(id)
	if err != nil {
		return nil, err
	}
	node, err := story.Choose(st, nodeID, choice)
	if err != nil {
		return nil, s.mapStoryError(st, err)
	}
	return s.step(st, node), nil
}

// SubmitAnswers grades the end-of-story quiz, keeps the answers for the
// admins and awards points for the right ones.
func (s *StoryService) SubmitAnswers(ctx context.Context, ident auth.Identity, id string, answers []int) (*StoryQuizResult, error) {
	st, err := s.story(id)
	if err != nil {
		return nil, err
	}
	if len(st.Quiz) == 0 {
		return nil, apperror.ValidationFailed("answers", "this story has no quiz")
	}
	if len(answers) > len(st.Quiz) {
		return nil, apperror.ValidationFailed("answers", fmt.Sprintf("story quiz has only %d questions", len(st.Quiz)))
	}

	correct, total := story.Grade(st, answers)

	scored, err := s.scores.SubmitScore(ctx, ident, ScoreInput{
		GameType: "story-quiz",
		Score:    correct * PointsPerCorrect,
		Graded:   true,
		Metadata: model.JSONMap{"story": st.ID, "correct": correct, "total": total},
	})
	if err != nil {
		return nil, err
	}

	if err := s.answers.SaveQuizAnswer(ctx, &model.QuizAnswer{
		StoryID:   st.ID,
		UserID:    scored.Score.UserID,
		UserEmail: scored.Score.UserEmail,
		Answers:   model.JSONMap{"answers": answers},
		Score:     correct,
		Total:     total,
	}); err != nil {
		return nil, fmt.Errorf("service/story: saving answers: %w", err)
	}

	return &StoryQuizResult{Correct: correct, Total: total, Awarded: scored.Awarded, TotalPoints: scored.TotalPoints}, nil
}

func (s *StoryService) story(id string) (*story.Story, error) {
	st, ok := s.catalog.Story(id)
	if !ok {
		return nil, apperror.NotFound("story", id)
	}
	return st, nil
}

func (s *StoryService) step(st *story.Story, node *story.Node) *StoryStep {
	step := &StoryStep{StoryID: st.ID, Node: node}
	if node.IsEnding {
		qs := make([]content.Question, 0, len(st.Quiz))
		for _, q := range st.Quiz {
			qs = append(qs, content.Question{Prompt: q.Prompt, Options: q.Options})
		}
		step.Quiz = publicQuestions(qs)
	}
	return step
}

// mapStoryError turns player errors into domain errors. A dangling choice is
// a content bug, so it is logged before failing closed.
func (s *StoryService) mapStoryError(st *story.Story, err error) error {
	switch {
	case errors.Is(err, story.ErrNodeNotFound):
		s.logger.Warn("story node not found", slog.String("story", st.ID), slog.String("error", err.Error()))
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "story node not found"}
	case errors.Is(err, story.ErrBadChoice):
		return apperror.ValidationFailed("choice", "that choice does not exist")
	case errors.Is(err, story.ErrEnded):
		return apperror.ValidationFailed("node_id", "the story has already ended")
	}
	return err
}
