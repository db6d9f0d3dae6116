package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nickname-notifier/internal/lib/sl"
	"nickname-notifier/internal/model"
)

// Registry is the subset of the recipient store the dialogues need.
type Registry interface {
	Register(ctx context.Context, nickname string, chatID int64, username string) error
	FindByChat(ctx context.Context, chatID int64) ([]model.Recipient, error)
	FindByNickname(ctx context.Context, nickname string) (*model.Recipient, error)
	ListAll(ctx context.Context) ([]model.Recipient, error)
	DeleteByNickname(ctx context.Context, nickname string) (int64, error)
	DeleteByChat(ctx context.Context, chatID int64) (int64, error)
	SetRole(ctx context.Context, nickname string, role model.Role) (int64, error)
	IsAdmin(ctx context.Context, chatID int64) (bool, error)
}

// Dispatcher routes events to commands and dialogue steps. Events of one
// chat must be delivered sequentially; different chats may be handled
// concurrently.
type Dispatcher struct {
	registry Registry
	sessions *Sessions
	log      *slog.Logger
}

func NewDispatcher(registry Registry, sessions *Sessions, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		sessions: sessions,
		log:      log,
	}
}

// Handle processes one event and returns the replies to send back to the
// chat. It never fails: user-facing errors become their message, anything
// else becomes a generic apology and is logged.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) []Reply {
	const op = "dialog.Handle"
	log := d.log.With(
		slog.String("op", op),
		sl.Chat(ev.ChatID),
		slog.String("kind", ev.Kind.String()),
	)

	replies, err := d.route(ctx, ev)
	if err == nil {
		return replies
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		log.Info("rejected by dialogue", slog.String("reason", userErr.Text))
		return append(replies, Reply{Text: userErr.Text})
	}

	log.Error("failed to handle event", slog.String("command", ev.Command), sl.Err(err))
	return append(replies, Reply{Text: textInternalError})
}

// Abandon ends the chat's dialogue after input that the transport could not
// decode, such as an unknown option token.
func (d *Dispatcher) Abandon(_ context.Context, chatID int64) []Reply {
	d.sessions.Clear(chatID)
	d.log.Warn("dialogue abandoned after undecodable input", sl.Chat(chatID))
	return []Reply{{Text: textBadRoleChoice}}
}

func (d *Dispatcher) route(ctx context.Context, ev Event) ([]Reply, error) {
	switch ev.Kind {
	case EventCommand:
		return d.handleCommand(ctx, ev)
	case EventText:
		return d.handleText(ctx, ev)
	case EventChoice:
		return d.handleChoice(ctx, ev)
	default:
		return nil, fmt.Errorf("unsupported event kind %d", ev.Kind)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev Event) ([]Reply, error) {
	switch ev.Command {
	case "start", "help":
		return text(textHelp), nil
	case "cancel":
		return d.cancel(ev.ChatID), nil
	case "whoami":
		return d.whoami(ctx, ev)
	case "unsubscribe":
		return d.unsubscribe(ctx, ev.ChatID)
	case "list_users":
		return d.listUsers(ctx, ev.ChatID)
	case "subscribe":
		return d.startSubscribe(ev.ChatID), nil
	case "setrole":
		return d.startSetRole(ctx, ev.ChatID)
	case "unsubscribe_user":
		return d.startRemoveUser(ctx, ev.ChatID)
	default:
		return text(textUnknownCommand), nil
	}
}

func (d *Dispatcher) handleText(ctx context.Context, ev Event) ([]Reply, error) {
	sess := d.sessions.Get(ev.ChatID)
	switch sess.State {
	case StateAwaitNickname:
		return d.subscribeNickname(ctx, ev)
	case StateAwaitRoleChoice:
		return []Reply{{Text: textUseButtons, Choices: model.Roles}}, nil
	case StateAwaitTargetNickname:
		return d.setRoleNickname(ctx, ev, sess)
	case StateAwaitRemoveNickname:
		return d.removeNickname(ctx, ev)
	default:
		if ev.Text == "" {
			return nil, nil
		}
		return text(textCommandsOnly), nil
	}
}

func (d *Dispatcher) handleChoice(_ context.Context, ev Event) ([]Reply, error) {
	sess := d.sessions.Get(ev.ChatID)
	switch sess.State {
	case StateAwaitRoleChoice:
		return d.chooseRole(ev)
	case StateAwaitNickname:
		return text(textAskNickname), nil
	case StateAwaitTargetNickname:
		return text(fmt.Sprintf(textAskTargetNickname, esc(sess.TargetRole.String()))), nil
	case StateAwaitRemoveNickname:
		return text(textAskRemoveNickname), nil
	default:
		// A button from a dialogue that is already over.
		return nil, nil
	}
}

func (d *Dispatcher) cancel(chatID int64) []Reply {
	if !d.sessions.Clear(chatID) {
		return text(textNothingToCancel)
	}
	return text(textCancelled)
}

// requireAdmin returns a UserError when the chat is not an admin.
func (d *Dispatcher) requireAdmin(ctx context.Context, chatID int64) error {
	isAdmin, err := d.registry.IsAdmin(ctx, chatID)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if !isAdmin {
		return &UserError{Text: textAdminOnly}
	}
	return nil
}

func text(s string) []Reply {
	return []Reply{{Text: s}}
}
