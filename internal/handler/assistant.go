package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/islamkidszone/kidszone-api/internal/ai"
	"github.com/islamkidszone/kidszone-api/internal/tts"
)

// Chatter answers a conversation. *ai.ChatClient implements it.
type Chatter interface {
	Reply(ctx context.Context, history []ai.Message) (string, error)
}

// Speaker turns text into audio. *tts.Synthesizer implements it.
type Speaker interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

var (
	_ Chatter = (*ai.ChatClient)(nil)
	_ Speaker = (*tts.Synthesizer)(nil)
)

// AssistantHandler fronts the AI helper and read-aloud. Both upstreams are
// optional; when one is unconfigured its route answers 503.
type AssistantHandler struct {
	chat   Chatter
	speech Speaker
	logger *slog.Logger
}

func NewAssistantHandler(chat Chatter, speech Speaker, logger *slog.Logger) *AssistantHandler {
	return &AssistantHandler{chat: chat, speech: speech, logger: logger}
}

type chatRequest struct {
	Messages []ai.Message `json:"messages" validate:"required,min=1,dive"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type ttsRequest struct {
	Text  string `json:"text"  validate:"required"`
	Voice string `json:"voice"`
}

// HandleChat is POST /api/chat with the conversation so far, oldest first.
func (h *AssistantHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if _, err := identity(r); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	reply, err := h.chat.Reply(r.Context(), req.Messages)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// HandleTTS is POST /api/tts. The response body is MP3 audio.
func (h *AssistantHandler) HandleTTS(w http.ResponseWriter, r *http.Request) {
	if _, err := identity(r); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req ttsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	audio, err := h.speech.Synthesize(r.Context(), req.Text, req.Voice)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", tts.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.Warn("writing audio failed", slog.String("error", err.Error()))
	}
}
