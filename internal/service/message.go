package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
)

const MaxMessageLength = 2000

// AdminNotifier is the slice of notify.Notifier the message flow needs.
type AdminNotifier interface {
	NotifyAdmin(ctx context.Context, subject, text string)
}

// MessageService is the contact form: families write in, admins read.
type MessageService struct {
	messages repository.MessageRepository
	notifier AdminNotifier
	logger   *slog.Logger
}

func NewMessageService(messages repository.MessageRepository, notifier AdminNotifier, logger *slog.Logger) *MessageService {
	return &MessageService{messages: messages, notifier: notifier, logger: logger}
}

// Send stores the message and emails the admin. The email is best effort;
// the message is saved either way.
func (s *MessageService) Send(ctx context.Context, id auth.Identity, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("content", "message is empty")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, apperror.ValidationFailed("content", fmt.Sprintf("must be %d characters or fewer", MaxMessageLength))
	}

	msg := &model.Message{UserID: id.UserID, UserEmail: id.Email, Content: text}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("service/message: saving message: %w", err)
	}

	s.logger.Info("message received", slog.String("messageID", msg.ID), slog.String("userID", id.UserID))
	s.notifier.NotifyAdmin(ctx, "New message on Islam Kids Zone", fmt.Sprintf("From: %s\n\n%s", id.Email, text))

	return msg, nil
}

func (s *MessageService) List(ctx context.Context, unreadOnly bool) ([]model.Message, error) {
	msgs, err := s.messages.List(ctx, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("service/message: listing: %w", err)
	}
	return msgs, nil
}

func (s *MessageService) MarkRead(ctx context.Context, id string, read bool) error {
	if err := s.messages.SetRead(ctx, id, read); err != nil {
		return fmt.Errorf("service/message: marking %s: %w", id, err)
	}
	return nil
}

func (s *MessageService) Delete(ctx context.Context, id string) error {
	if err := s.messages.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/message: deleting %s: %w", id, err)
	}
	return nil
}
