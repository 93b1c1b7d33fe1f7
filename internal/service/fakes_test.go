package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/content"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
	"github.com/islamkidszone/kidszone-api/internal/scoring"
)

// In-memory repositories. They follow the sqldb behaviour closely enough for
// the service rules to be tested without a database.

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int

	deleteErr error
	awardErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperror.Conflict("user", u.Email)
		}
	}
	if _, taken := f.users[u.ID]; taken && u.ID != "" {
		return apperror.Conflict("user", u.ID)
	}
	if u.ID == "" {
		f.nextID++
		u.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	if u.Role == "" {
		u.Role = "user"
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UpsertByEmail(ctx context.Context, u *model.User) error {
	existing, err := f.GetByEmail(ctx, u.Email)
	if err != nil {
		return f.Create(ctx, u)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.users[existing.ID]
	if u.FullName != "" {
		stored.FullName = u.FullName
	}
	if u.AvatarURL != "" {
		stored.AvatarURL = u.AvatarURL
	}
	*u = *stored
	return nil
}

func (f *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].FullName < out[j].FullName
	})
	return out, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, id, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) SetPoints(_ context.Context, id string, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Points = points
	return nil
}

func (f *fakeUserRepo) AwardPoints(_ context.Context, id string, amount int, at time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.awardErr != nil {
		return 0, f.awardErr
	}
	u, ok := f.users[id]
	if !ok {
		return 0, apperror.NotFound("user", id)
	}
	u.Points = scoring.Award(u.Points, amount)
	u.LastAward = &at
	return u.Points, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

type fakeScoreRepo struct {
	mu      sync.Mutex
	scores  []model.GameScore
	answers []model.QuizAnswer

	deleteErr error
}

func (f *fakeScoreRepo) SaveScore(_ context.Context, s *model.GameScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = fmt.Sprintf("score-%d", len(f.scores)+1)
	f.scores = append(f.scores, *s)
	return nil
}

func (f *fakeScoreRepo) ListScoresByUser(_ context.Context, userID string, opts repository.ListOptions) ([]model.GameScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.GameScore
	for i := len(f.scores) - 1; i >= 0; i-- {
		if f.scores[i].UserID == userID {
			out = append(out, f.scores[i])
		}
	}
	return page(out, opts), nil
}

func (f *fakeScoreRepo) ListScores(_ context.Context, opts repository.ListOptions) ([]model.GameScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.GameScore, 0, len(f.scores))
	for i := len(f.scores) - 1; i >= 0; i-- {
		out = append(out, f.scores[i])
	}
	return page(out, opts), nil
}

func (f *fakeScoreRepo) DeleteScoresByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.scores[:0]
	for _, s := range f.scores {
		if s.UserID != userID {
			kept = append(kept, s)
		}
	}
	f.scores = kept
	return nil
}

func (f *fakeScoreRepo) SaveQuizAnswer(_ context.Context, a *model.QuizAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = fmt.Sprintf("answer-%d", len(f.answers)+1)
	f.answers = append(f.answers, *a)
	return nil
}

func (f *fakeScoreRepo) ListQuizAnswers(_ context.Context, storyID string, opts repository.ListOptions) ([]model.QuizAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.QuizAnswer
	for i := len(f.answers) - 1; i >= 0; i-- {
		if storyID == "" || f.answers[i].StoryID == storyID {
			out = append(out, f.answers[i])
		}
	}
	return page(out, opts), nil
}

func page[T any](items []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	return items
}

type fakeProgressRepo struct {
	mu   sync.Mutex
	rows map[string]*model.GameProgress
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{rows: make(map[string]*model.GameProgress)}
}

func (f *fakeProgressRepo) RecordPlay(_ context.Context, userID, gameType string, score int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "/" + gameType
	p, ok := f.rows[key]
	if !ok {
		p = &model.GameProgress{UserID: userID, GameType: gameType}
		f.rows[key] = p
	}
	p.Plays++
	if score > p.BestScore {
		p.BestScore = score
	}
	p.LastScore = score
	p.LastPlayed = at
	return nil
}

func (f *fakeProgressRepo) ListProgress(_ context.Context, userID string) ([]model.GameProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.GameProgress
	for _, p := range f.rows {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameType < out[j].GameType })
	return out, nil
}

type fakeSpinRepo struct {
	mu     sync.Mutex
	spins  []model.SpinReward
	nextID int
}

func (f *fakeSpinRepo) LastSpin(_ context.Context, userID string) (*model.SpinReward, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.spins) - 1; i >= 0; i-- {
		if f.spins[i].UserID == userID {
			cp := f.spins[i]
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("spin", userID)
}

func (f *fakeSpinRepo) SaveSpin(_ context.Context, s *model.SpinReward) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.Day = s.CreatedAt.UTC().Format(time.DateOnly)
	for _, existing := range f.spins {
		if existing.UserID == s.UserID && existing.Day == s.Day {
			return apperror.Conflict("spin", s.UserID+"/"+s.Day)
		}
	}
	f.nextID++
	s.ID = fmt.Sprintf("spin-%d", f.nextID)
	f.spins = append(f.spins, *s)
	return nil
}

func (f *fakeSpinRepo) DeleteSpin(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.spins {
		if s.ID == id {
			f.spins = append(f.spins[:i], f.spins[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("spin", id)
}

type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (f *fakeMessageRepo) Create(_ context.Context, m *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = fmt.Sprintf("msg-%d", len(f.msgs)+1)
	m.Read = false
	m.CreatedAt = time.Now().UTC()
	f.msgs = append(f.msgs, *m)
	return nil
}

func (f *fakeMessageRepo) List(_ context.Context, unreadOnly bool) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Message{}
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if unreadOnly && f.msgs[i].Read {
			continue
		}
		out = append(out, f.msgs[i])
	}
	return out, nil
}

func (f *fakeMessageRepo) SetRead(_ context.Context, id string, read bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.msgs {
		if f.msgs[i].ID == id {
			f.msgs[i].Read = read
			return nil
		}
	}
	return apperror.NotFound("message", id)
}

func (f *fakeMessageRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.msgs {
		if f.msgs[i].ID == id {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("message", id)
}

type notice struct{ subject, text string }

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (f *fakeNotifier) NotifyAdmin(_ context.Context, subject, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice{subject, text})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	c, err := content.Load(content.Embedded(), discardLogger())
	require.NoError(t, err)
	return c
}

// base is a fixed instant for clock-dependent tests.
var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// addUser seeds a user straight into the fake.
// testAdmins is the allowlist every service test runs with.
var testAdmins = auth.NewAdminPolicy("admin@example.com", "staff.example.com")

func addUser(t *testing.T, repo *fakeUserRepo, email, name string, points int) *model.User {
	t.Helper()
	u := &model.User{Email: email, FullName: name, Points: points}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

// compile-time checks that the fakes satisfy the interfaces
var (
	_ repository.UserRepository     = (*fakeUserRepo)(nil)
	_ repository.ScoreRepository    = (*fakeScoreRepo)(nil)
	_ repository.ProgressRepository = (*fakeProgressRepo)(nil)
	_ repository.SpinRepository     = (*fakeSpinRepo)(nil)
	_ repository.MessageRepository  = (*fakeMessageRepo)(nil)
	_ AdminNotifier                 = (*fakeNotifier)(nil)
)
