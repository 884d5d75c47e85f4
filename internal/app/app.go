package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/tour-dates/internal/config"
	"github.com/riskibarqy/tour-dates/internal/infrastructure/repository/sqlite"
	"github.com/riskibarqy/tour-dates/internal/interfaces/httpapi"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/riskibarqy/tour-dates/internal/usecase"
)

// Server bundles the HTTP server with the resources it owns.
type Server struct {
	HTTP      *http.Server
	Scheduler *usecase.ScrapeScheduler
	db        *sqlx.DB
}

func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Server, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	db, _, err := OpenStore(ctx, StoreOptions{
		Path:            cfg.DBPath,
		BusyTimeout:     cfg.DBBusyTimeout,
		CreateIfMissing: cfg.DBAutoInit,
		Seed:            cfg.DBSeed,
	}, logger.Named("store"))
	if err != nil {
		return nil, err
	}

	tourDateSvc := usecase.NewTourDateService(sqlite.NewTourDateRepository(db), usecase.TourDateServiceConfig{
		DefaultSeason: cfg.Season,
		RecentLimit:   cfg.RecentLimit,
		CacheTTL:      cfg.CacheTTL,
		CacheDisabled: !cfg.CacheEnabled,
	})

	scrapeSvc, err := NewScrapeService(cfg, db, tourDateSvc, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	scheduler := usecase.NewScrapeScheduler(scrapeSvc, usecase.ScrapeSchedulerConfig{
		Enabled:    cfg.JobScrapeEnabled,
		Interval:   cfg.JobScrapeInterval,
		RunOnStart: cfg.JobScrapeRunOnStart,
		Timeout:    cfg.JobScrapeTimeout,
	}, logger.Named("scheduler"))

	handler := httpapi.NewHandler(tourDateSvc, scheduler, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	return &Server{
		HTTP: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		Scheduler: scheduler,
		db:        db,
	}, nil
}

// Close stops the scheduler and releases the database. Call after HTTP.Shutdown.
func (s *Server) Close() error {
	s.Scheduler.Stop()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
