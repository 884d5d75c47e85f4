package app

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/tour-dates/external/nba"
	"github.com/riskibarqy/tour-dates/internal/config"
	"github.com/riskibarqy/tour-dates/internal/infrastructure/repository/sqlite"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/riskibarqy/tour-dates/internal/platform/resilience"
	"github.com/riskibarqy/tour-dates/internal/usecase"
)

type invalidator interface {
	Invalidate(ctx context.Context, season string)
}

func NewNBAClient(cfg config.Config, logger *logging.Logger) (*nba.Client, error) {
	return nba.NewClient(nba.ClientConfig{
		BaseURL:         cfg.NBABaseURL,
		UserAgent:       cfg.NBAUserAgent,
		Timeout:         cfg.NBATimeout,
		MaxRetries:      cfg.NBAMaxRetries,
		RetryBackoff:    cfg.NBARetryBackoff,
		RequestInterval: cfg.NBARequestInterval,
		Logger:          logger.Named("nba"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.NBACircuitEnabled,
			FailureThreshold: cfg.NBACircuitFailureCount,
			OpenTimeout:      cfg.NBACircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.NBACircuitHalfOpenMaxReq,
		},
	})
}

// NewScrapeService wires the NBA client and the SQLite repository. cache may be nil.
func NewScrapeService(cfg config.Config, db *sqlx.DB, cache invalidator, logger *logging.Logger) (*usecase.ScrapeService, error) {
	client, err := NewNBAClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return usecase.NewScrapeService(
		client,
		sqlite.NewTourDateRepository(db),
		cache,
		nil,
		logger.Named("scrape"),
		usecase.ScrapeServiceConfig{
			DefaultSeason: cfg.Season,
			Workers:       cfg.ScraperWorkers,
		},
	), nil
}
