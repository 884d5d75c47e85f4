package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

type scrapeRunner interface {
	Run(ctx context.Context, input ScrapeInput) (ScrapeResult, error)
}

type ScrapeSchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
	// RunOnStart triggers one run immediately instead of waiting a full interval.
	RunOnStart bool
	Timeout    time.Duration
}

// ScrapeScheduler runs scrapes periodically and on demand. At most one run is in flight.
type ScrapeScheduler struct {
	runner scrapeRunner
	cfg    ScrapeSchedulerConfig
	logger *logging.Logger

	running sync.Mutex
	wg      conc.WaitGroup
	stop    context.CancelFunc
	stopMu  sync.Mutex
}

func NewScrapeScheduler(runner scrapeRunner, cfg ScrapeSchedulerConfig, logger *logging.Logger) *ScrapeScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &ScrapeScheduler{runner: runner, cfg: cfg, logger: logger}
}

// Trigger runs one scrape now. It fails with ErrConflict while another run is active.
func (s *ScrapeScheduler) Trigger(ctx context.Context, input ScrapeInput) (ScrapeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScrapeScheduler.Trigger")
	defer span.End()

	if !s.running.TryLock() {
		return ScrapeResult{}, fmt.Errorf("%w: a scrape run is already in progress", ErrConflict)
	}
	defer s.running.Unlock()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	return s.runner.Run(ctx, input)
}

// Start launches the periodic loop when enabled. It returns immediately.
func (s *ScrapeScheduler) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("scrape scheduler disabled")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.stopMu.Lock()
	s.stop = cancel
	s.stopMu.Unlock()

	s.logger.Info("scrape scheduler started", "interval", s.cfg.Interval.String())
	s.wg.Go(func() {
		s.loop(loopCtx)
	})
}

// Stop cancels the loop and waits for an in-flight run to return.
func (s *ScrapeScheduler) Stop() {
	s.stopMu.Lock()
	cancel := s.stop
	s.stop = nil
	s.stopMu.Unlock()
	if cancel != nil {
		cancel()
	}
	if recovered := s.wg.WaitAndRecover(); recovered != nil {
		s.logger.Error("scrape scheduler panicked", "panic", recovered.String())
	}
}

func (s *ScrapeScheduler) loop(ctx context.Context) {
	if s.cfg.RunOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scrape scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ScrapeScheduler) tick(ctx context.Context) {
	result, err := s.Trigger(ctx, ScrapeInput{})
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "scheduled scrape completed", "run_id", result.RunID, "written", result.Written)
	case ctx.Err() != nil:
		// shutting down
	case isConflict(err):
		s.logger.WarnContext(ctx, "scheduled scrape skipped, previous run still active")
	case isInvalidInput(err):
		s.logger.WarnContext(ctx, "scheduled scrape rejected", "error", err)
	default:
		s.logger.ErrorContext(ctx, "scheduled scrape failed", "error", err)
	}
}
