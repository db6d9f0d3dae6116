package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nickname-notifier/internal/model"
	"nickname-notifier/internal/repository"
)

// Starting a dialogue replaces whatever dialogue the chat had before.

func (d *Dispatcher) startSubscribe(chatID int64) []Reply {
	d.sessions.Set(chatID, Session{State: StateAwaitNickname})
	return text(textAskNickname)
}

func (d *Dispatcher) subscribeNickname(ctx context.Context, ev Event) ([]Reply, error) {
	nickname := strings.TrimSpace(ev.Text)
	if nickname == "" {
		return nil, &UserError{Text: textEmptyNickname}
	}

	err := d.registry.Register(ctx, nickname, ev.ChatID, ev.Username)
	var bound *repository.ChatAlreadyBoundError
	switch {
	case err == nil:
		d.sessions.Clear(ev.ChatID)
		return text(fmt.Sprintf(textSubscribed, esc(nickname))), nil
	case errors.As(err, &bound):
		d.sessions.Clear(ev.ChatID)
		return nil, &UserError{Text: fmt.Sprintf(textChatAlreadyBound, esc(bound.Nickname))}
	case errors.Is(err, repository.ErrNicknameTaken):
		// The chat may still pick another nickname.
		return nil, &UserError{Text: fmt.Sprintf(textNicknameTaken, esc(nickname))}
	case errors.Is(err, repository.ErrEmptyNickname):
		return nil, &UserError{Text: textEmptyNickname}
	default:
		d.sessions.Clear(ev.ChatID)
		return nil, fmt.Errorf("subscribe: %w", err)
	}
}

func (d *Dispatcher) startSetRole(ctx context.Context, chatID int64) ([]Reply, error) {
	if err := d.requireAdmin(ctx, chatID); err != nil {
		return nil, err
	}
	d.sessions.Set(chatID, Session{State: StateAwaitRoleChoice})
	return []Reply{{Text: textChooseRole, Choices: model.Roles}}, nil
}

func (d *Dispatcher) chooseRole(ev Event) ([]Reply, error) {
	if !ev.Role.Valid() {
		d.sessions.Clear(ev.ChatID)
		return nil, &UserError{Text: textBadRoleChoice}
	}
	d.sessions.Set(ev.ChatID, Session{State: StateAwaitTargetNickname, TargetRole: ev.Role})
	return text(fmt.Sprintf(textRoleChosen, esc(ev.Role.String()))), nil
}

func (d *Dispatcher) setRoleNickname(ctx context.Context, ev Event, sess Session) ([]Reply, error) {
	nickname := strings.TrimSpace(ev.Text)
	if nickname == "" {
		return nil, &UserError{Text: textEmptyNickname}
	}

	// From here on the dialogue ends whatever the outcome.
	d.sessions.Clear(ev.ChatID)

	role := sess.TargetRole
	if !role.Valid() {
		return nil, &UserError{Text: textBadRoleChoice}
	}

	target, err := d.registry.FindByNickname(ctx, nickname)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &UserError{Text: fmt.Sprintf(textTargetNotFound, esc(nickname))}
	}
	if err != nil {
		return nil, fmt.Errorf("setrole lookup: %w", err)
	}

	if target.Role == role {
		return text(fmt.Sprintf(textSameRole, esc(nickname), role)), nil
	}

	updated, err := d.registry.SetRole(ctx, nickname, role)
	if errors.Is(err, repository.ErrInvalidRole) {
		return nil, &UserError{Text: textBadRoleChoice}
	}
	if err != nil {
		return nil, fmt.Errorf("setrole: %w", err)
	}
	if updated == 0 {
		return nil, &UserError{Text: fmt.Sprintf(textRoleNotChanged, esc(nickname))}
	}

	return text(fmt.Sprintf(textRoleChanged, esc(nickname), target.Role, role)), nil
}

func (d *Dispatcher) startRemoveUser(ctx context.Context, chatID int64) ([]Reply, error) {
	if err := d.requireAdmin(ctx, chatID); err != nil {
		return nil, err
	}
	d.sessions.Set(chatID, Session{State: StateAwaitRemoveNickname})
	return text(textAskRemoveNickname), nil
}

func (d *Dispatcher) removeNickname(ctx context.Context, ev Event) ([]Reply, error) {
	nickname := strings.TrimSpace(ev.Text)
	if nickname == "" {
		return nil, &UserError{Text: textEmptyNickname}
	}

	removed, err := d.registry.DeleteByNickname(ctx, nickname)
	if err != nil {
		d.sessions.Clear(ev.ChatID)
		return nil, fmt.Errorf("remove user: %w", err)
	}
	if removed == 0 {
		// Keep the dialogue so a typo can be corrected.
		return nil, &UserError{Text: fmt.Sprintf(textRemoveNotFound, esc(nickname))}
	}

	d.sessions.Clear(ev.ChatID)
	return text(fmt.Sprintf(textUserRemoved, esc(nickname))), nil
}
