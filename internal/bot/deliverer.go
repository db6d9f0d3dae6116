package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Deliverer pushes plain-text messages to chats. It uses its own API client
// so that a slow push never shares a connection with long polling.
type Deliverer struct {
	api messageSender
}

// NewDeliverer creates a Deliverer whose requests are bounded by timeout.
func NewDeliverer(token, endpoint string, timeout time.Duration) (*Deliverer, error) {
	client := &http.Client{Timeout: timeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create deliverer api: %w", err)
	}
	return &Deliverer{api: api}, nil
}

// Deliver sends text to chatID once.
func (d *Deliverer) Deliver(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
