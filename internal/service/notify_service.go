package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nickname-notifier/internal/lib/sl"
	"nickname-notifier/internal/metrics"
	"nickname-notifier/internal/model"
	"nickname-notifier/internal/repository"
)

// ErrRecipientNotFound is returned when no chat is bound to the nickname.
var ErrRecipientNotFound = errors.New("nickname not found")

// DeliveryError wraps a failure of the chat service to accept a message.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// RecipientFinder resolves nicknames to chats.
type RecipientFinder interface {
	FindByNickname(ctx context.Context, nickname string) (*model.Recipient, error)
}

// Deliverer sends plain text to a chat.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, text string) error
}

// NotifyService pushes messages to recipients by nickname. Each message is
// attempted once.
type NotifyService struct {
	recipients RecipientFinder
	deliverer  Deliverer
	log        *slog.Logger
}

func NewNotifyService(recipients RecipientFinder, deliverer Deliverer, log *slog.Logger) *NotifyService {
	return &NotifyService{
		recipients: recipients,
		deliverer:  deliverer,
		log:        log,
	}
}

func (s *NotifyService) Send(ctx context.Context, nickname, text string) error {
	const op = "service.NotifyService.Send"
	log := s.log.With(slog.String("op", op), slog.String("nickname", nickname))

	recipient, err := s.recipients.FindByNickname(ctx, nickname)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRecipientNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	err = s.deliverer.Deliver(ctx, recipient.ChatID, text)
	metrics.DeliveryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn("delivery failed", sl.Chat(recipient.ChatID), sl.Err(err))
		return &DeliveryError{Err: err}
	}

	log.Info("message delivered", sl.Chat(recipient.ChatID))
	return nil
}
