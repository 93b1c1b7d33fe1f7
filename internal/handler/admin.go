package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/service"
)

// AdminHandler is the admin console API. The router puts every route here
// behind auth.RequireAdmin.
type AdminHandler struct {
	admin    *service.AdminService
	messages *service.MessageService
	logger   *slog.Logger
}

func NewAdminHandler(admin *service.AdminService, messages *service.MessageService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, messages: messages, logger: logger}
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

type markReadRequest struct {
	Read *bool `json:"read" validate:"required"`
}

// HandleListUsers is GET /api/admin/users, highest points first.
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.admin.SetRole(r.Context(), actor, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) HandleResetPoints(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.admin.ResetPoints(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.admin.DeleteUser(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListMessages is GET /api/admin/messages?unread=true
func (h *AdminHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	unread := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, h.logger, apperror.ValidationFailed("unread", "unread must be true or false"))
			return
		}
		unread = b
	}

	msgs, err := h.messages.List(r.Context(), unread)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// HandleMarkMessage is PATCH /api/admin/messages/{id} with {"read": bool}.
func (h *AdminHandler) HandleMarkMessage(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.messages.MarkRead(r.Context(), chi.URLParam(r, "id"), *req.Read); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.messages.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleQuizAnswers is GET /api/admin/quiz-answers?story=&limit=&offset=
func (h *AdminHandler) HandleQuizAnswers(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	answers, err := h.admin.QuizAnswers(r.Context(), r.URL.Query().Get("story"), opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func (h *AdminHandler) HandleRecentScores(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	scores, err := h.admin.RecentScores(r.Context(), opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
