package handler

import (
	"log/slog"
	"net/http"

	"github.com/islamkidszone/kidszone-api/internal/service"
)

// MessageHandler takes contact-form messages from signed-in families.
type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

type messageRequest struct {
	Content string `json:"content" validate:"required"`
}

// HandleSend is POST /api/messages.
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	msg, err := h.messages.Send(r.Context(), id, req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
