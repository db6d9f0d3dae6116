package repository

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nickname-notifier/internal/config"
	"nickname-notifier/internal/model"
)

// NewDB opens the registry database for the given driver and creates the
// recipients table if it does not exist yet.
func NewDB(driver, dsn string, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		if dsn == "" {
			dsn = "notifier.db"
		}
		if err := ensureDirForSQLite(dsn); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	dbLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         dbLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if driver == config.DriverSQLite {
		// SQLite allows a single writer; serialize access through one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&model.Recipient{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return db, nil
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
