package service

import (
	"context"
	"fmt"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/content"
	"github.com/islamkidszone/kidszone-api/internal/model"
)

// PointsPerCorrect is what each right answer is worth.
const PointsPerCorrect = 5

type QuizSummary struct {
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	GameType      string `json:"game_type"`
	AgeRange      string `json:"age_range,omitempty"`
	QuestionCount int    `json:"question_count"`
}

// PublicQuestion is a question without its answer.
type PublicQuestion struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type PublicQuiz struct {
	QuizSummary
	Questions []PublicQuestion `json:"questions"`
}

type QuestionReview struct {
	Index       int    `json:"index"`
	Chosen      int    `json:"chosen"`
	Answer      int    `json:"answer"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

type QuizResult struct {
	Correct     int              `json:"correct"`
	Total       int              `json:"total"`
	Awarded     int              `json:"awarded"`
	TotalPoints int              `json:"total_points"`
	Review      []QuestionReview `json:"review"`
}

// QuizService serves quizzes without their answers and grades submissions on
// the server, so the client never decides what a child earned.
type QuizService struct {
	catalog *content.Catalog
	scores  *ScoreService
}

func NewQuizService(catalog *content.Catalog, scores *ScoreService) *QuizService {
	return &QuizService{catalog: catalog, scores: scores}
}

func (s *QuizService) List() []QuizSummary {
	quizzes := s.catalog.Quizzes()
	out := make([]QuizSummary, 0, len(quizzes))
	for i := range quizzes {
		out = append(out, summarize(&quizzes[i]))
	}
	return out
}

func (s *QuizService) Get(slug string) (*PublicQuiz, error) {
	q, ok := s.catalog.Quiz(slug)
	if !ok {
		return nil, apperror.NotFound("quiz", slug)
	}
	return &PublicQuiz{QuizSummary: summarize(q), Questions: publicQuestions(q.Questions)}, nil
}

// Submit grades answers (option indexes, one per question; -1 or a missing
// entry means skipped) and awards PointsPerCorrect per right answer. All
// wrong earns nothing; the per-game fallback is only for ungraded rounds.
func (s *QuizService) Submit(ctx context.Context, id auth.Identity, slug string, answers []int) (*QuizResult, error) {
	q, ok := s.catalog.Quiz(slug)
	if !ok {
		return nil, apperror.NotFound("quiz", slug)
	}
	if len(answers) > len(q.Questions) {
		return nil, apperror.ValidationFailed("answers", fmt.Sprintf("quiz has only %d questions", len(q.Questions)))
	}

	res := &QuizResult{Total: len(q.Questions), Review: make([]QuestionReview, 0, len(q.Questions))}
	for i, question := range q.Questions {
		chosen := -1
		if i < len(answers) {
			chosen = answers[i]
		}
		right := chosen == question.Answer
		if right {
			res.Correct++
		}
		res.Review = append(res.Review, QuestionReview{
			Index:       i,
			Chosen:      chosen,
			Answer:      question.Answer,
			Correct:     right,
			Explanation: question.Explanation,
		})
	}

	scored, err := s.scores.SubmitScore(ctx, id, ScoreInput{
		GameType: q.GameType,
		Score:    res.Correct * PointsPerCorrect,
		Graded:   true,
		Answers:  model.JSONMap{"answers": answers},
		Metadata: model.JSONMap{"quiz": q.Slug, "correct": res.Correct, "total": res.Total},
	})
	if err != nil {
		return nil, err
	}

	res.Awarded = scored.Awarded
	res.TotalPoints = scored.TotalPoints
	return res, nil
}

func summarize(q *content.Quiz) QuizSummary {
	return QuizSummary{
		Slug:          q.Slug,
		Title:         q.Title,
		Category:      q.Category,
		GameType:      q.GameType,
		AgeRange:      q.AgeRange,
		QuestionCount: len(q.Questions),
	}
}

func publicQuestions(qs []content.Question) []PublicQuestion {
	out := make([]PublicQuestion, 0, len(qs))
	for i, q := range qs {
		out = append(out, PublicQuestion{Index: i, Prompt: q.Prompt, Options: q.Options})
	}
	return out
}
