package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nickname-notifier/internal/config"
	"nickname-notifier/internal/dialog"
	"nickname-notifier/internal/lib/sl"
	"nickname-notifier/internal/metrics"
	"nickname-notifier/internal/model"
)

const cbRolePrefix = "role:"

const updateTimeout = 30 * time.Second

// Dispatcher is the dialogue engine the bot feeds with events.
type Dispatcher interface {
	Handle(ctx context.Context, ev dialog.Event) []dialog.Reply
	Abandon(ctx context.Context, chatID int64) []dialog.Reply
}

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// chatWorker processes the updates of one chat in arrival order. The queue
// is guarded by Bot.mu and never blocks the polling loop.
type chatWorker struct {
	queue []tgbotapi.Update
}

// Bot adapts Telegram updates to dialogue events.
type Bot struct {
	api         telegramAPI
	dispatcher  Dispatcher
	log         *slog.Logger
	pollTimeout int
	workers     map[int64]*chatWorker
	mu          sync.Mutex
	wg          sync.WaitGroup
}

func New(cfg config.Telegram, dispatcher Dispatcher, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, cfg.APIEndpoint)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info("bot authorized", slog.String("account", api.Self.UserName))

	return newBot(api, dispatcher, log, cfg.PollTimeout), nil
}

func newBot(api telegramAPI, dispatcher Dispatcher, log *slog.Logger, pollTimeout int) *Bot {
	return &Bot{
		api:         api,
		dispatcher:  dispatcher,
		log:         log,
		pollTimeout: pollTimeout,
		workers:     make(map[int64]*chatWorker),
	}
}

// Start begins polling updates until ctx is cancelled. Updates of one chat
// are handled sequentially, different chats in parallel. Start returns after
// every queued update has been handled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		chatID, ok := chatOf(update)
		if !ok {
			continue
		}
		b.enqueue(ctx, chatID, update)
	}

	b.wg.Wait()
	b.log.Info("polling stopped")
	return nil
}

func (b *Bot) enqueue(ctx context.Context, chatID int64, update tgbotapi.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, ok := b.workers[chatID]
	if !ok {
		w = &chatWorker{}
		b.workers[chatID] = w
		b.wg.Add(1)
		go b.runWorker(ctx, chatID, w)
	}
	w.queue = append(w.queue, update)
}

// runWorker exits once its queue is drained; the next update for the chat
// starts a new worker.
func (b *Bot) runWorker(ctx context.Context, chatID int64, w *chatWorker) {
	defer b.wg.Done()

	for {
		b.mu.Lock()
		if len(w.queue) == 0 {
			delete(b.workers, chatID)
			b.mu.Unlock()
			return
		}
		update := w.queue[0]
		w.queue[0] = tgbotapi.Update{}
		w.queue = w.queue[1:]
		b.mu.Unlock()

		b.handleUpdate(ctx, update)
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update",
				slog.Int("update_id", update.UpdateID),
				slog.Any("panic", r),
			)
		}
	}()

	// Let an update that was already accepted finish during shutdown.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), updateTimeout)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ev := dialog.Event{
		ChatID:   msg.Chat.ID,
		Username: usernameOf(msg.From),
	}
	if msg.IsCommand() {
		ev.Kind = dialog.EventCommand
		ev.Command = msg.Command()
		b.log.Debug("command received", sl.Chat(ev.ChatID), slog.String("command", ev.Command))
	} else {
		ev.Kind = dialog.EventText
		ev.Text = msg.Text
	}
	metrics.BotEvents.WithLabelValues(ev.Kind.String()).Inc()

	b.sendReplies(msg.Chat.ID, b.dispatcher.Handle(ctx, ev))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack failed", sl.Err(err))
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	var replies []dialog.Reply
	role, ok := decodeRoleChoice(cb.Data)
	if ok {
		metrics.BotEvents.WithLabelValues(dialog.EventChoice.String()).Inc()
		replies = b.dispatcher.Handle(ctx, dialog.Event{
			Kind:     dialog.EventChoice,
			ChatID:   chatID,
			Username: usernameOf(cb.From),
			Role:     role,
		})
	} else {
		b.log.Warn("unknown callback data", sl.Chat(chatID), slog.String("data", cb.Data))
		replies = b.dispatcher.Abandon(ctx, chatID)
	}
	if len(replies) == 0 {
		return
	}

	// The first reply replaces the prompt so its buttons cannot be pressed again.
	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, replies[0].Text)
	edit.ParseMode = tgbotapi.ModeHTML
	if len(replies[0].Choices) > 0 {
		markup := roleKeyboard(replies[0].Choices)
		edit.ReplyMarkup = &markup
	}
	if _, err := b.api.Send(edit); err != nil {
		b.log.Warn("edit prompt failed", sl.Chat(chatID), sl.Err(err))
		b.sendReplies(chatID, replies[:1])
	}
	b.sendReplies(chatID, replies[1:])
}

func (b *Bot) sendReplies(chatID int64, replies []dialog.Reply) {
	for _, reply := range replies {
		msg := tgbotapi.NewMessage(chatID, reply.Text)
		msg.ParseMode = tgbotapi.ModeHTML
		if len(reply.Choices) > 0 {
			msg.ReplyMarkup = roleKeyboard(reply.Choices)
		}
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("send reply failed", sl.Chat(chatID), sl.Err(err))
		}
	}
}

func roleKeyboard(roles []model.Role) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(roles))
	for _, role := range roles {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(role.String(), encodeRoleChoice(role)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func encodeRoleChoice(role model.Role) string {
	return cbRolePrefix + role.String()
}

// decodeRoleChoice accepts only the tokens produced by encodeRoleChoice.
func decodeRoleChoice(data string) (model.Role, bool) {
	raw, ok := strings.CutPrefix(data, cbRolePrefix)
	if !ok {
		return "", false
	}
	role := model.Role(raw)
	if !role.Valid() {
		return "", false
	}
	return role, true
}

func chatOf(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil {
			return update.CallbackQuery.Message.Chat.ID, true
		}
		// Still answer the callback so the client stops its spinner.
		if update.CallbackQuery.From != nil {
			return update.CallbackQuery.From.ID, true
		}
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID, true
	}
	return 0, false
}

func usernameOf(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return u.UserName
}
