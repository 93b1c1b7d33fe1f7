// Package ai is the kid-safe chat helper built on the OpenAI chat API.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
)

const (
	MaxTurns          = 20
	MaxMessageLength  = 2000
	DefaultModel      = openai.GPT4oMini
	maxResponseTokens = 500
)

// QuotaMessage is shown to children when the provider rate-limits us.
const QuotaMessage = "The helper is resting right now because it has answered lots of questions. Please try again later!"

const systemPrompt = `You are a friendly helper on Islam Kids Zone, a learning website for Muslim children aged 5 to 12.
Answer in short, simple sentences a child can read. Be warm and encouraging.
Only talk about Islamic learning, the Quran, the prophets, good manners, and the games on the site.
If asked about anything unsafe, scary, or meant for adults, kindly say you can't help with that and suggest asking a parent.
Never ask for personal information such as full names, addresses, schools, or photos.
When you are not sure about a religious ruling, say so and suggest asking a parent or a local imam.`

const (
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Message is one turn of the conversation as the client sends it.
type Message struct {
	Role    string `json:"role"    validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatClient talks to OpenAI (or a compatible endpoint).
type ChatClient struct {
	client *openai.Client
	model  string
}

// NewChatClient returns a client that reports ErrUnavailable on every call
// when apiKey is empty.
func NewChatClient(apiKey, model, baseURL string) *ChatClient {
	if model == "" {
		model = DefaultModel
	}
	c := &ChatClient{model: model}
	if apiKey == "" {
		return c
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	c.client = openai.NewClientWithConfig(cfg)
	return c
}

func (c *ChatClient) Enabled() bool { return c.client != nil }

// Reply answers the last user message given the conversation so far. Only the
// most recent MaxTurns messages are sent.
func (c *ChatClient) Reply(ctx context.Context, history []Message) (string, error) {
	if !c.Enabled() {
		return "", apperror.Unavailable("AI chat")
	}
	if err := validateHistory(history); err != nil {
		return "", err
	}

	if len(history) > MaxTurns {
		history = history[len(history)-MaxTurns:]
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   maxResponseTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ai: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func validateHistory(history []Message) error {
	if len(history) == 0 {
		return apperror.ValidationFailed("messages", "at least one message is required")
	}
	for i, m := range history {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return apperror.ValidationFailed("messages", fmt.Sprintf("message %d has an unknown role", i))
		}
		if strings.TrimSpace(m.Content) == "" {
			return apperror.ValidationFailed("messages", fmt.Sprintf("message %d is empty", i))
		}
		if utf8.RuneCountInString(m.Content) > MaxMessageLength {
			return apperror.ValidationFailed("messages", fmt.Sprintf("message %d is longer than %d characters", i, MaxMessageLength))
		}
	}
	if history[len(history)-1].Role != RoleUser {
		return apperror.ValidationFailed("messages", "the last message must come from the user")
	}
	return nil
}

// mapError turns provider failures into errors the handlers already know how
// to render.
func mapError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusTooManyRequests:
		return apperror.RateLimited(QuotaMessage)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperror.Unavailable("AI chat")
	}
	return fmt.Errorf("ai: completion failed: %w", err)
}
