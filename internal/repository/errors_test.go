package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, want: true},
		{name: "deadlock", err: fmt.Errorf("commit: %w", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}), want: true},
		{name: "duplicate key", err: fmt.Errorf("create recipient: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "undefined table", err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}},
		{name: "nickname taken", err: ErrNicknameTaken},
		{name: "plain", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestChatAlreadyBoundError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &ChatAlreadyBoundError{Nickname: "alice"})

	var bound *ChatAlreadyBoundError
	assert.ErrorAs(t, err, &bound)
	assert.Equal(t, "alice", bound.Nickname)
	assert.True(t, isRegistryError(err))
	assert.False(t, isRegistryError(ErrNotFound))
}
