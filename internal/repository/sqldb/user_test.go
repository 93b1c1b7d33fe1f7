package sqldb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/scoring"
)

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)
	u := &model.User{Email: "  Aisha@Example.com ", FullName: "Aisha", Role: "user"}

	require.NoError(t, db.Users().Create(context.Background(), u))

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "aisha@example.com", u.Email)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := db.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aisha", got.FullName)
	assert.Equal(t, 0, got.Points)
	assert.Nil(t, got.LastAward)
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "aisha@example.com", "Aisha", 0)

	err := db.Users().Create(context.Background(), &model.User{Email: "AISHA@example.com", Role: "user"})

	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
}

func TestUserGet_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = db.Users().GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserGetByEmail_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "yusuf@example.com", "Yusuf", 0)

	got, err := db.Users().GetByEmail(context.Background(), "Yusuf@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestUserUpsertByEmail(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()

	fresh := &model.User{Email: "maryam@example.com", FullName: "Maryam", Role: "user"}
	require.NoError(t, users.UpsertByEmail(ctx, fresh))
	require.NotEmpty(t, fresh.ID)

	_, err := users.AwardPoints(ctx, fresh.ID, 40, base)
	require.NoError(t, err)

	again := &model.User{Email: "maryam@example.com", FullName: "Maryam B.", AvatarURL: "https://img/1.png", Role: "admin"}
	require.NoError(t, users.UpsertByEmail(ctx, again))

	assert.Equal(t, fresh.ID, again.ID, "existing id is kept")
	assert.Equal(t, "Maryam B.", again.FullName)
	assert.Equal(t, "https://img/1.png", again.AvatarURL)
	assert.Equal(t, "user", again.Role, "role is never overwritten by a login")
	assert.Equal(t, 40, again.Points)
}

func TestUserList_SortedByPoints(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "a@example.com", "Zaid", 100)
	createTestUser(t, db, "b@example.com", "Amina", 300)
	createTestUser(t, db, "c@example.com", "Bilal", 100)

	users, err := db.Users().List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)

	var names []string
	for _, u := range users {
		names = append(names, u.FullName)
	}
	assert.Equal(t, []string{"Amina", "Bilal", "Zaid"}, names)
}

func TestUserUpdateRole(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "a@example.com", "A", 0)

	require.NoError(t, db.Users().UpdateRole(context.Background(), u.ID, "admin"))

	got, err := db.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Role)

	err = db.Users().UpdateRole(context.Background(), "missing", "admin")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserSetPoints(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "a@example.com", "A", 500)
	ctx := context.Background()

	require.NoError(t, db.Users().SetPoints(ctx, u.ID, 0))
	got, err := db.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Points)

	assert.ErrorIs(t, db.Users().SetPoints(ctx, u.ID, scoring.MaxPoints+1), apperror.ErrValidation)
	assert.ErrorIs(t, db.Users().SetPoints(ctx, u.ID, -1), apperror.ErrValidation)
	assert.ErrorIs(t, db.Users().SetPoints(ctx, "missing", 10), apperror.ErrNotFound)
}

func TestUserAwardPoints_Caps(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "a@example.com", "A", 1480)
	ctx := context.Background()

	total, err := db.Users().AwardPoints(ctx, u.ID, 50, base)
	require.NoError(t, err)
	assert.Equal(t, scoring.MaxPoints, total)

	got, err := db.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, scoring.MaxPoints, got.Points)
	require.NotNil(t, got.LastAward)
	assert.True(t, got.LastAward.Equal(base))

	total, err = db.Users().AwardPoints(ctx, u.ID, -2000, base)
	require.NoError(t, err)
	assert.Equal(t, 0, total, "negative awards never go below zero")

	_, err = db.Users().AwardPoints(ctx, "missing", 10, base)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserDelete_RemovesOwnedRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "a@example.com", "A", 0)
	other := createTestUser(t, db, "b@example.com", "B", 0)

	require.NoError(t, db.Scores().SaveScore(ctx, &model.GameScore{UserID: u.ID, GameType: "quiz", Score: 20}))
	require.NoError(t, db.Scores().SaveScore(ctx, &model.GameScore{UserID: other.ID, GameType: "quiz", Score: 20}))
	require.NoError(t, db.Progress().RecordPlay(ctx, u.ID, "quiz", 20, base))
	require.NoError(t, db.Spins().SaveSpin(ctx, &model.SpinReward{UserID: u.ID, Label: "10 points", Points: 10}))
	require.NoError(t, db.Messages().Create(ctx, &model.Message{UserID: u.ID, Content: "salam"}))

	require.NoError(t, db.Users().Delete(ctx, u.ID))

	_, err := db.Users().GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	scores, err := db.Scores().ListScores(ctx, repositoryAll)
	require.NoError(t, err)
	assert.Len(t, scores, 2, "scores are cleared by the caller, not by Delete")

	progress, err := db.Progress().ListProgress(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, progress)

	_, err = db.Spins().LastSpin(ctx, u.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	msgs, err := db.Messages().List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "messages outlive their sender")

	assert.ErrorIs(t, db.Users().Delete(ctx, u.ID), apperror.ErrNotFound)
}
