package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickname-notifier/internal/config"
	"nickname-notifier/internal/model"
)

func newTestRepository(t *testing.T) *RecipientRepository {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := NewDB(config.DriverSQLite, filepath.Join(t.TempDir(), "data", "registry.db"), log)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewRecipientRepository(db, 5*time.Second)
}

func TestRegister_NewBinding(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, "alice", 100, "alice_tg"))

	got, err := repo.FindByChat(ctx, 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Nickname)
	assert.Equal(t, int64(100), got[0].ChatID)
	assert.Equal(t, "alice_tg", got[0].DisplayUsername())
	assert.Equal(t, model.RoleUser, got[0].Role)
}

func TestRegister_SamePairRefreshesUsername(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, "alice", 100, "old"))
	require.NoError(t, repo.Register(ctx, "alice", 100, "new"))

	got, err := repo.FindByNickname(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new", got.DisplayUsername())

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegister_EmptyUsernameStoredAsNull(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, "alice", 100, ""))

	got, err := repo.FindByNickname(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got.Username)
}

func TestRegister_Conflicts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Register(ctx, "alice", 100, ""))

	t.Run("chat already bound", func(t *testing.T) {
		err := repo.Register(ctx, "bob", 100, "")
		var bound *ChatAlreadyBoundError
		require.ErrorAs(t, err, &bound)
		assert.Equal(t, "alice", bound.Nickname)
	})

	t.Run("nickname taken", func(t *testing.T) {
		err := repo.Register(ctx, "alice", 200, "")
		assert.ErrorIs(t, err, ErrNicknameTaken)
	})

	t.Run("empty nickname", func(t *testing.T) {
		err := repo.Register(ctx, "", 300, "")
		assert.ErrorIs(t, err, ErrEmptyNickname)
	})

	t.Run("nicknames are case sensitive", func(t *testing.T) {
		require.NoError(t, repo.Register(ctx, "Alice", 400, ""))
	})

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRegister_AfterUnsubscribeAllowsNewNickname(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, "alice", 100, ""))
	removed, err := repo.DeleteByChat(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, repo.Register(ctx, "bob", 100, ""))
	require.NoError(t, repo.Register(ctx, "alice", 200, ""))
}

func TestRegister_ConcurrentSameChat(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	const workers = 10
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Register(ctx, fmt.Sprintf("nick%d", i), 100, "")
		}(i)
	}
	wg.Wait()

	var ok, bound int
	for _, err := range errs {
		var already *ChatAlreadyBoundError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &already):
			bound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, bound)

	got, err := repo.FindByChat(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRegister_ConcurrentSameNickname(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	const workers = 10
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Register(ctx, "alice", int64(1000+i), "")
		}(i)
	}
	wg.Wait()

	var ok, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrNicknameTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, taken)
}

func TestFindByNickname_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindByNickname(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAll_OrderedByNickname(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, "carol", 3, ""))
	require.NoError(t, repo.Register(ctx, "alice", 1, ""))
	require.NoError(t, repo.Register(ctx, "bob", 2, ""))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{all[0].Nickname, all[1].Nickname, all[2].Nickname})
}

func TestDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Register(ctx, "alice", 100, ""))

	n, err := repo.DeleteByNickname(ctx, "ghost")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.DeleteByNickname(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByChat(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSetRoleAndIsAdmin(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Register(ctx, "alice", 100, ""))

	isAdmin, err := repo.IsAdmin(ctx, 100)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	n, err := repo.SetRole(ctx, "alice", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	isAdmin, err = repo.IsAdmin(ctx, 100)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	n, err = repo.SetRole(ctx, "ghost", model.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = repo.SetRole(ctx, "alice", model.Role("root"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	got, err := repo.FindByNickname(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	isAdmin, err = repo.IsAdmin(ctx, 999)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestPing(t *testing.T) {
	repo := newTestRepository(t)
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestNewDB_UnsupportedDriver(t *testing.T) {
	_, err := NewDB("oracle", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
