package repository

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyNickname = errors.New("nickname must not be empty")
	ErrNicknameTaken = errors.New("nickname is already taken by another chat")
	ErrNotFound      = errors.New("recipient not found")
	ErrInvalidRole   = errors.New("invalid role")
)

// ChatAlreadyBoundError is returned when a chat that already owns a nickname
// tries to register a different one.
type ChatAlreadyBoundError struct {
	Nickname string
}

func (e *ChatAlreadyBoundError) Error() string {
	return fmt.Sprintf("chat is already bound to nickname %q", e.Nickname)
}

func isRegistryError(err error) bool {
	var bound *ChatAlreadyBoundError
	return errors.As(err, &bound) ||
		errors.Is(err, ErrNicknameTaken) ||
		errors.Is(err, ErrEmptyNickname)
}
