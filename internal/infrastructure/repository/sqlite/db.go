package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

const (
	DriverName = "sqlite"
	MemoryPath = ":memory:"
)

var ErrDatabaseExists = errors.New("database already exists")

type Options struct {
	Path           string
	BusyTimeout    time.Duration
	QueryFormatter func(query string) string
}

// Open opens the database file at opts.Path with a single writer connection
// and WAL journaling. Parent directories are created as needed.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	traceOpts := []otelsql.Option{
		otelsql.WithDBName(filepath.Base(path)),
		otelsql.WithAttributes(attribute.String("db.system", "sqlite")),
	}
	if opts.QueryFormatter != nil {
		traceOpts = append(traceOpts, otelsql.WithQueryFormatter(opts.QueryFormatter))
	}

	db, err := otelsqlx.Open(DriverName, path, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busy.Milliseconds()),
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}

	return db, nil
}

// Prepare makes path ready for a fresh database. An existing file is an
// ErrDatabaseExists unless force is set, in which case it and its WAL files are removed.
func Prepare(path string, force bool) error {
	if path == MemoryPath {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat database: %w", err)
	}
	if !force {
		return fmt.Errorf("%w at %s; pass force to overwrite", ErrDatabaseExists, path)
	}
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// Exists reports whether a database file is present at path.
func Exists(path string) bool {
	if path == MemoryPath {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
