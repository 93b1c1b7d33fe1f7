package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", apperror.ValidationFailed("score", "bad"), http.StatusBadRequest, "validation_error"},
		{"unauthorized", apperror.Unauthorized("who are you"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperror.Forbidden("admins only"), http.StatusForbidden, "forbidden"},
		{"not found", apperror.NotFound("quiz", "x"), http.StatusNotFound, "not_found"},
		{"conflict", apperror.Conflict("user", "x"), http.StatusConflict, "conflict"},
		{"rate limited", apperror.RateLimited("slow down"), http.StatusTooManyRequests, "rate_limited"},
		{"unavailable", apperror.Unavailable("AI chat"), http.StatusServiceUnavailable, "unavailable"},
		{"wrapped", fmt.Errorf("service: %w", apperror.NotFound("story", "x")), http.StatusNotFound, "not_found"},
		{"plain error", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, discardLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.NotContains(t, body.Message, "pq:")
		})
	}
}

func TestWriteError_IncludesField(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, discardLogger(), apperror.ValidationFailed("gameType", "game type is required"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "gameType", body.Field)
	assert.Equal(t, "game type is required", body.Message)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
		Age   int    `json:"age"   validate:"max=12"`
	}

	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantField string
	}{
		{"valid", `{"email":"kid@example.com","age":9}`, false, ""},
		{"broken json", `{"email":`, true, "body"},
		{"missing email", `{"age":9}`, true, "email"},
		{"bad email", `{"email":"nope"}`, true, "email"},
		{"too old", `{"email":"kid@example.com","age":40}`, true, "age"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), r, &p)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperror.ErrValidation)
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	big := `{"content":"` + strings.Repeat("a", maxBodyBytes+10) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))

	var p messageRequest
	err := decodeJSON(httptest.NewRecorder(), r, &p)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "too large")
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=five", nil)

	n, err := queryInt(r, "limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = queryInt(r, "missing", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	_, err = queryInt(r, "bad", 10)
	require.ErrorIs(t, err, apperror.ErrValidation)
}
