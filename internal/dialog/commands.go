package dialog

import (
	"context"
	"fmt"
	"html"
	"strings"

	"nickname-notifier/internal/model"
)

func (d *Dispatcher) whoami(ctx context.Context, ev Event) ([]Reply, error) {
	recipients, err := d.registry.FindByChat(ctx, ev.ChatID)
	if err != nil {
		return nil, fmt.Errorf("whoami: %w", err)
	}

	username := noValue
	if ev.Username != "" {
		username = "@" + esc(ev.Username)
	}

	lines := []string{
		fmt.Sprintf(textWhoamiChat, ev.ChatID),
		fmt.Sprintf(textWhoamiUsername, username),
		"",
	}
	if len(recipients) == 0 {
		lines = append(lines, textWhoamiNone)
	} else {
		lines = append(lines, textWhoamiNicknames)
		for _, r := range recipients {
			lines = append(lines, fmt.Sprintf(textWhoamiLine, esc(r.Nickname), r.Role))
		}
	}
	return text(strings.Join(lines, "\n")), nil
}

func (d *Dispatcher) unsubscribe(ctx context.Context, chatID int64) ([]Reply, error) {
	recipients, err := d.registry.FindByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("unsubscribe: %w", err)
	}

	removed, err := d.registry.DeleteByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("unsubscribe: %w", err)
	}
	if removed == 0 {
		return text(textNoSubscription), nil
	}

	nicknames := make([]string, 0, len(recipients))
	for _, r := range recipients {
		nicknames = append(nicknames, esc(r.Nickname))
	}
	return text(fmt.Sprintf(textUnsubscribed, strings.Join(nicknames, ", "))), nil
}

func (d *Dispatcher) listUsers(ctx context.Context, chatID int64) ([]Reply, error) {
	if err := d.requireAdmin(ctx, chatID); err != nil {
		return nil, err
	}

	recipients, err := d.registry.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(recipients) == 0 {
		return text(textNoUsers), nil
	}

	lines := make([]string, 0, len(recipients)+1)
	lines = append(lines, textUsersHeader)
	for _, r := range recipients {
		lines = append(lines, formatUser(r))
	}
	return text(strings.Join(lines, "\n")), nil
}

func formatUser(r model.Recipient) string {
	username := noValue
	if name := r.DisplayUsername(); name != "" {
		username = "@" + esc(name)
	}
	return fmt.Sprintf(textUserLine, esc(r.Nickname), r.ChatID, username, r.Role)
}

func esc(s string) string {
	return html.EscapeString(s)
}
