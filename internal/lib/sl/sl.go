// Package sl holds small slog helpers.
package sl

import "log/slog"

// Err returns an "error" attribute carrying the error text.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Chat returns a "chat_id" attribute.
func Chat(chatID int64) slog.Attr {
	return slog.Int64("chat_id", chatID)
}
