package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"nickname-notifier/internal/model"
)

const (
	defaultQueryTimeout = 5 * time.Second
	maxRegisterRetries  = 8
)

// RecipientRepository is the registry of nickname bindings.
type RecipientRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewRecipientRepository(db *gorm.DB, timeout time.Duration) *RecipientRepository {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &RecipientRepository{db: db, timeout: timeout}
}

// Register binds nickname to chatID.
//
// Registering the pair that already exists only refreshes the username.
// A chat that already owns another nickname yields *ChatAlreadyBoundError,
// a nickname owned by another chat yields ErrNicknameTaken. The checks and
// the insert run in one serializable transaction which is retried when the
// database reports a conflict with a concurrent registration.
func (r *RecipientRepository) Register(ctx context.Context, nickname string, chatID int64, username string) error {
	const op = "repository.Register"

	if nickname == "" {
		return ErrEmptyNickname
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	attempt := func() error {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return registerTx(tx, nickname, chatID, username)
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newRegisterBackOff(), maxRegisterRetries),
		ctx,
	)
	if err := backoff.Retry(attempt, policy); err != nil {
		if isRegistryError(err) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func registerTx(tx *gorm.DB, nickname string, chatID int64, username string) error {
	var byChat []model.Recipient
	if err := tx.Where("chat_id = ?", chatID).Limit(1).Find(&byChat).Error; err != nil {
		return fmt.Errorf("find by chat: %w", err)
	}

	if len(byChat) == 1 {
		if byChat[0].Nickname != nickname {
			return &ChatAlreadyBoundError{Nickname: byChat[0].Nickname}
		}
		err := tx.Model(&model.Recipient{}).
			Where("nickname = ?", nickname).
			Update("username", nullableString(username)).Error
		if err != nil {
			return fmt.Errorf("update username: %w", err)
		}
		return nil
	}

	var taken int64
	if err := tx.Model(&model.Recipient{}).Where("nickname = ?", nickname).Count(&taken).Error; err != nil {
		return fmt.Errorf("find by nickname: %w", err)
	}
	if taken > 0 {
		return ErrNicknameTaken
	}

	recipient := model.Recipient{
		Nickname: nickname,
		ChatID:   chatID,
		Username: nullableString(username),
		Role:     model.RoleUser,
	}
	if err := tx.Create(&recipient).Error; err != nil {
		return fmt.Errorf("create recipient: %w", err)
	}
	return nil
}

// FindByChat returns the bindings owned by chatID: zero or one record.
func (r *RecipientRepository) FindByChat(ctx context.Context, chatID int64) ([]model.Recipient, error) {
	const op = "repository.FindByChat"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var recipients []model.Recipient
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return recipients, nil
}

func (r *RecipientRepository) FindByNickname(ctx context.Context, nickname string) (*model.Recipient, error) {
	const op = "repository.FindByNickname"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var recipient model.Recipient
	err := r.db.WithContext(ctx).Where("nickname = ?", nickname).First(&recipient).Error
	switch {
	case err == nil:
		return &recipient, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

// ListAll returns every binding ordered by nickname.
func (r *RecipientRepository) ListAll(ctx context.Context) ([]model.Recipient, error) {
	const op = "repository.ListAll"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var recipients []model.Recipient
	if err := r.db.WithContext(ctx).Order("nickname").Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return recipients, nil
}

func (r *RecipientRepository) DeleteByNickname(ctx context.Context, nickname string) (int64, error) {
	const op = "repository.DeleteByNickname"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).Where("nickname = ?", nickname).Delete(&model.Recipient{})
	if res.Error != nil {
		return 0, fmt.Errorf("%s: %w", op, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *RecipientRepository) DeleteByChat(ctx context.Context, chatID int64) (int64, error) {
	const op = "repository.DeleteByChat"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&model.Recipient{})
	if res.Error != nil {
		return 0, fmt.Errorf("%s: %w", op, res.Error)
	}
	return res.RowsAffected, nil
}

// SetRole changes the role of nickname and returns the number of updated rows.
func (r *RecipientRepository) SetRole(ctx context.Context, nickname string, role model.Role) (int64, error) {
	const op = "repository.SetRole"

	if !role.Valid() {
		return 0, ErrInvalidRole
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).
		Model(&model.Recipient{}).
		Where("nickname = ?", nickname).
		Update("role", role)
	if res.Error != nil {
		return 0, fmt.Errorf("%s: %w", op, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *RecipientRepository) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	const op = "repository.IsAdmin"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Recipient{}).
		Where("chat_id = ? AND role = ?", chatID, model.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return count > 0, nil
}

// Ping checks that the database answers.
func (r *RecipientRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("repository.Ping: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("repository.Ping: %w", err)
	}
	return nil
}

func newRegisterBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	return b
}

// isRetryable reports whether err comes from a lost race with a concurrent
// transaction rather than from the data itself.
func isRetryable(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return true
		}
	}
	return false
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
