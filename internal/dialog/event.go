// Package dialog turns chat events into registry operations and replies.
//
// It knows nothing about the chat transport: the bot converts incoming
// updates into Events and renders the returned Replies. Multi-step commands
// keep their progress in Sessions, one per chat.
package dialog

import "nickname-notifier/internal/model"

// EventKind tells which fields of an Event are meaningful.
type EventKind int

const (
	// EventCommand is a slash command; Command holds its name without the slash.
	EventCommand EventKind = iota + 1
	// EventText is any non-command message; Text may be empty for media.
	EventText
	// EventChoice is a selection from the options of a previous Reply.
	EventChoice
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventChoice:
		return "choice"
	default:
		return "unknown"
	}
}

// Event is one inbound chat interaction.
type Event struct {
	Kind     EventKind
	ChatID   int64
	Username string
	Command  string
	Text     string
	Role     model.Role
}

// Reply is one outbound message. Text is HTML. Choices, when present, are
// offered to the user as selectable options.
type Reply struct {
	Text    string
	Choices []model.Role
}

// UserError carries a message that is shown to the user verbatim.
type UserError struct {
	Text string
}

func (e *UserError) Error() string {
	return e.Text
}
