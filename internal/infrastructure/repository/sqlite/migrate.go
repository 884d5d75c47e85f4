package sqlite

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	dbassets "github.com/riskibarqy/tour-dates/db"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
)

// NewMigrator binds the embedded migrations to db. Closing the returned
// migrator closes db as well.
func NewMigrator(db *sqlx.DB, logger *logging.Logger) (*migrate.Migrate, error) {
	src, err := iofs.New(dbassets.Migrations, dbassets.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("create sqlite migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, DriverName, driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	if logger != nil {
		m.Log = migrateLogger{logger: logger}
	}
	return m, nil
}

// MigrateUp applies every pending migration. db stays open.
func MigrateUp(db *sqlx.DB, logger *logging.Logger) error {
	m, err := NewMigrator(db, logger)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

type migrateLogger struct {
	logger *logging.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug("migrate", "detail", fmt.Sprintf(format, v...))
}

func (l migrateLogger) Verbose() bool {
	return false
}
