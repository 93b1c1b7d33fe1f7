package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/auth"
)

func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", "kidszone-test")
	require.NoError(t, err)

	// bcrypt minimum cost keeps the tests fast
	ps := auth.NewPasswordServiceForTest(4)
	return NewAuthService(repo, ts, ps, testAdmins, discardLogger()), ts
}

func TestSignUp_CreatesUserAndToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc, ts := newTestAuthService(t, repo)

	res, err := svc.SignUp(context.Background(), "  Amina@Example.com ", "bismillah123", "Amina")
	require.NoError(t, err)

	assert.Equal(t, "amina@example.com", res.User.Email)
	assert.Equal(t, auth.RoleUser, res.User.Role)
	assert.NotEmpty(t, res.User.PasswordHash)
	assert.NotEqual(t, "bismillah123", res.User.PasswordHash)

	id, err := ts.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id.UserID)
	assert.Equal(t, "amina@example.com", id.Email)
}

func TestSignUp_AdminAllowlistGetsAdminRole(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"admin@example.com", auth.RoleAdmin},
		{"ustadha@staff.example.com", auth.RoleAdmin},
		{"kid@example.com", auth.RoleUser},
		{"someone@evilstaff.example.com", auth.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			svc, _ := newTestAuthService(t, newFakeUserRepo())
			res, err := svc.SignUp(context.Background(), tt.email, "password123", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.User.Role)
		})
	}
}

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		fullName string
		field    string
	}{
		{"missing email", "", "password123", "", "email"},
		{"email without at", "amina.example.com", "password123", "", "email"},
		{"short password", "a@example.com", "short", "", "password"},
		{"long password", "a@example.com", strings.Repeat("p", 73), "", "password"},
		{"long name", "a@example.com", "password123", strings.Repeat("n", MaxNameLength+1), "full_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAuthService(t, newFakeUserRepo())
			_, err := svc.SignUp(context.Background(), tt.email, tt.password, tt.fullName)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.SignUp(context.Background(), "amina@example.com", "password123", "Amina")
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), "AMINA@example.com", "password456", "Other")
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Contains(t, err.Error(), "already exists")
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	signed, err := svc.SignUp(ctx, "bilal@example.com", "password123", "Bilal")
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		res, err := svc.Login(ctx, "Bilal@Example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, signed.User.ID, res.User.ID)
		assert.NotEmpty(t, res.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "bilal@example.com", "password999")
		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		_, errUnknown := svc.Login(ctx, "nobody@example.com", "password123")
		_, errWrong := svc.Login(ctx, "bilal@example.com", "password999")
		require.ErrorIs(t, errUnknown, apperror.ErrUnauthorized)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})
}

func TestLogin_GoogleAccountHasNoPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	_, err := svc.LoginGoogle(ctx, &auth.GoogleUser{Email: "zaid@example.com", Name: "Zaid"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "zaid@example.com", "")
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLoginGoogle_FirstVisitThenReturn(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	first, err := svc.LoginGoogle(ctx, &auth.GoogleUser{
		Email:   "ustadha@staff.example.com",
		Name:    "Ustadha Maryam",
		Picture: "https://example.com/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, first.User.Role)

	// Points earned in between must survive the next Google login.
	_, err = repo.AwardPoints(ctx, first.User.ID, 40, base)
	require.NoError(t, err)

	again, err := svc.LoginGoogle(ctx, &auth.GoogleUser{Email: "ustadha@staff.example.com", Name: "Maryam"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID)
	assert.Equal(t, "Maryam", again.User.FullName)
	assert.Equal(t, "https://example.com/a.png", again.User.AvatarURL)
	assert.Equal(t, 40, again.User.Points)
}

func TestLoginGoogle_RequiresEmail(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	_, err := svc.LoginGoogle(context.Background(), &auth.GoogleUser{Name: "No Email"})
	require.Error(t, err)

	_, err = svc.LoginGoogle(context.Background(), nil)
	require.Error(t, err)
}

func TestMe(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	u := addUser(t, repo, "amina@example.com", "Amina", 12)

	got, err := svc.Me(context.Background(), auth.Identity{UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, 12, got.Points)

	_, err = svc.Me(context.Background(), auth.Identity{})
	require.ErrorIs(t, err, apperror.ErrUnauthorized)

	// no row and no email to build one from
	_, err = svc.Me(context.Background(), auth.Identity{UserID: "gone"})
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestMe_ProvisionsHostedAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	got, err := svc.Me(ctx, auth.Identity{UserID: "b7c1-hosted-sub", Email: "Yusuf@Example.com", Role: "authenticated"})
	require.NoError(t, err)
	assert.Equal(t, "b7c1-hosted-sub", got.ID)
	assert.Equal(t, "yusuf@example.com", got.Email)
	assert.Equal(t, auth.RoleUser, got.Role)
	assert.Zero(t, got.Points)

	again, err := svc.Me(ctx, auth.Identity{UserID: "b7c1-hosted-sub", Email: "yusuf@example.com"})
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
	assert.Len(t, repo.users, 1)

	staff, err := svc.Me(ctx, auth.Identity{UserID: "c9d2-hosted-sub", Email: "maryam@staff.example.com"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, staff.Role)
}

func TestMe_SameEmailResolvesToExistingAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	u := addUser(t, repo, "amina@example.com", "Amina", 40)

	got, err := svc.Me(context.Background(), auth.Identity{UserID: "hosted-sub-for-amina", Email: "amina@example.com"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 40, got.Points)
	assert.Len(t, repo.users, 1)
}
