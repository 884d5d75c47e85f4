package app

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	dbassets "github.com/riskibarqy/tour-dates/db"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/infrastructure/repository/sqlite"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/riskibarqy/tour-dates/internal/usecase"
)

type StoreOptions struct {
	Path        string
	BusyTimeout time.Duration
	// CreateIfMissing migrates a fresh file when none exists yet.
	CreateIfMissing bool
	// Seed loads the embedded seed rows into a freshly created database.
	Seed bool
}

type StoreInit struct {
	Created bool
	Seed    usecase.SeedResult
}

// OpenStore opens the SQLite database and brings its schema up to date.
func OpenStore(ctx context.Context, opts StoreOptions, logger *logging.Logger) (*sqlx.DB, StoreInit, error) {
	if logger == nil {
		logger = logging.Default()
	}

	existed := sqlite.Exists(opts.Path)
	if !existed && opts.Path != sqlite.MemoryPath && !opts.CreateIfMissing {
		return nil, StoreInit{}, fmt.Errorf("%w: database not found at %s; run `tourdates initdb` first", usecase.ErrNotFound, opts.Path)
	}

	db, err := sqlite.Open(ctx, sqlite.Options{
		Path:           opts.Path,
		BusyTimeout:    opts.BusyTimeout,
		QueryFormatter: formatDBQueryForTrace,
	})
	if err != nil {
		return nil, StoreInit{}, err
	}
	if err := sqlite.MigrateUp(db, logger); err != nil {
		_ = db.Close()
		return nil, StoreInit{}, err
	}

	res := StoreInit{Created: !existed}
	if res.Created && opts.Seed {
		rows, err := LoadEmbeddedSeed()
		if err != nil {
			_ = db.Close()
			return nil, StoreInit{}, err
		}
		res.Seed, err = usecase.NewSeedService(sqlite.NewTourDateRepository(db), logger).Seed(ctx, rows)
		if err != nil {
			_ = db.Close()
			return nil, StoreInit{}, err
		}
	}
	if res.Created {
		logger.InfoContext(ctx, "database initialised",
			"path", opts.Path,
			"seed_records", res.Seed.Records,
			"seed_inserted", res.Seed.Inserted,
		)
	}

	return db, res, nil
}

// InitDatabase creates a fresh database at opts.Path. An existing file is
// replaced only when force is set.
func InitDatabase(ctx context.Context, opts StoreOptions, force bool, logger *logging.Logger) (StoreInit, error) {
	if err := sqlite.Prepare(opts.Path, force); err != nil {
		return StoreInit{}, err
	}

	opts.CreateIfMissing = true
	db, res, err := OpenStore(ctx, opts, logger)
	if err != nil {
		return StoreInit{}, err
	}
	if err := db.Close(); err != nil {
		return StoreInit{}, fmt.Errorf("close database: %w", err)
	}
	return res, nil
}

func LoadEmbeddedSeed() ([]tourdate.TourDate, error) {
	payload, err := fs.ReadFile(dbassets.Seed, dbassets.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded seed: %w", err)
	}
	return usecase.DecodeSeed(payload)
}
