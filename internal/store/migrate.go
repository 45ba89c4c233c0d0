package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"carpool/internal/model"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

// Migrate applies the embedded schema for the connection's dialect and then
// upgrades entries tables that predate the audit columns.
func Migrate(ctx context.Context, db *gorm.DB) error {
	dialect, dir := "sqlite3", "migrations/sqlite"
	if db.Dialector.Name() == "mysql" {
		dialect, dir = "mysql", "migrations/mysql"
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("migrate: sql handle: %w", err)
	}

	gooseMu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		gooseMu.Unlock()
	}()
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrate: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("migrate: apply: %w", err)
	}

	return upgradeEntries(ctx, db)
}

// upgradeEntries adds update_user/update_ts when missing and backfills
// rows written before they existed.
func upgradeEntries(ctx context.Context, db *gorm.DB) error {
	m := db.WithContext(ctx).Migrator()
	altered := false
	for _, col := range []string{"UpdateUser", "UpdateTS"} {
		if m.HasColumn(&model.Entry{}, col) {
			continue
		}
		if err := m.AddColumn(&model.Entry{}, col); err != nil {
			return fmt.Errorf("migrate: add entries.%s: %w", col, err)
		}
		altered = true
	}
	if !altered {
		return nil
	}
	err := db.WithContext(ctx).Exec(`UPDATE entries
		SET update_user = COALESCE(update_user, 'admin'),
		    update_ts   = COALESCE(update_ts, CURRENT_TIMESTAMP)`).Error
	if err != nil {
		return fmt.Errorf("migrate: backfill audit columns: %w", err)
	}
	slog.Info("migrate.entries_upgraded")
	return nil
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	slog.Debug("migrate.goose", "msg", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error("migrate.goose", "msg", strings.TrimSpace(fmt.Sprintf(format, v...)))
}
