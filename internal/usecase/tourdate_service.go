package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/platform/cache"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

var seasonPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

type TourDateServiceConfig struct {
	DefaultSeason string
	RecentLimit   int
	CacheTTL      time.Duration
	CacheDisabled bool
}

// TourDateService serves the read side: recent rows, the calendar grid and unclaimed days.
type TourDateService struct {
	repo          tourdate.Repository
	defaultSeason string
	recentLimit   int
	rows          *cache.Store[[]tourdate.TourDate]
	slots         *cache.Store[[]tourdate.Slot]
}

type Overview struct {
	Season   string
	Total    int
	Recent   []tourdate.TourDate
	Calendar []tourdate.CalendarMonth
	Missing  int
}

func NewTourDateService(repo tourdate.Repository, cfg TourDateServiceConfig) *TourDateService {
	limit := cfg.RecentLimit
	if limit <= 0 || limit > MaxRecentLimit {
		limit = DefaultRecentLimit
	}
	svc := &TourDateService{
		repo:          repo,
		defaultSeason: strings.TrimSpace(cfg.DefaultSeason),
		recentLimit:   limit,
	}
	if !cfg.CacheDisabled {
		svc.rows = cache.NewStore[[]tourdate.TourDate](cfg.CacheTTL)
		svc.slots = cache.NewStore[[]tourdate.Slot](cfg.CacheTTL)
	}
	return svc
}

func (s *TourDateService) DefaultSeason() string {
	return s.defaultSeason
}

func (s *TourDateService) ListRecent(ctx context.Context, season string, limit int) ([]tourdate.TourDate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TourDateService.ListRecent")
	defer span.End()

	season, err := s.resolveSeason(season)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = s.recentLimit
	}
	if limit < 1 || limit > MaxRecentLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, MaxRecentLimit)
	}

	key := seasonCachePrefix(season) + "recent:" + strconv.Itoa(limit)
	return s.rows.GetOrLoad(ctx, key, func(ctx context.Context) ([]tourdate.TourDate, error) {
		rows, err := s.repo.ListRecent(ctx, season, limit)
		if err != nil {
			return nil, fmt.Errorf("list recent tour dates season=%s: %w", season, err)
		}
		return rows, nil
	})
}

func (s *TourDateService) Calendar(ctx context.Context, season string) ([]tourdate.CalendarMonth, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TourDateService.Calendar")
	defer span.End()

	season, err := s.resolveSeason(season)
	if err != nil {
		return nil, err
	}
	rows, err := s.seasonRows(ctx, season)
	if err != nil {
		return nil, err
	}
	return tourdate.BuildCalendar(rows), nil
}

func (s *TourDateService) MissingSlots(ctx context.Context, season string) ([]tourdate.Slot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TourDateService.MissingSlots")
	defer span.End()

	season, err := s.resolveSeason(season)
	if err != nil {
		return nil, err
	}
	known, err := s.slots.GetOrLoad(ctx, seasonCachePrefix(season)+"combinations", func(ctx context.Context) ([]tourdate.Slot, error) {
		combos, err := s.repo.ListCombinations(ctx, season)
		if err != nil {
			return nil, fmt.Errorf("list combinations season=%s: %w", season, err)
		}
		return combos, nil
	})
	if err != nil {
		return nil, err
	}
	return tourdate.MissingSlots(known), nil
}

// Overview gathers everything the index page renders.
func (s *TourDateService) Overview(ctx context.Context, season string) (Overview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TourDateService.Overview")
	defer span.End()

	season, err := s.resolveSeason(season)
	if err != nil {
		return Overview{}, err
	}
	recent, err := s.ListRecent(ctx, season, s.recentLimit)
	if err != nil {
		return Overview{}, err
	}
	rows, err := s.seasonRows(ctx, season)
	if err != nil {
		return Overview{}, err
	}

	calendar := tourdate.BuildCalendar(rows)
	announced := 0
	for _, month := range calendar {
		for _, day := range month.Days {
			if day.Announced {
				announced++
			}
		}
	}

	return Overview{
		Season:   season,
		Total:    len(rows),
		Recent:   recent,
		Calendar: calendar,
		Missing:  tourdate.TotalSlots() - announced,
	}, nil
}

// Invalidate drops cached reads for season after a write.
func (s *TourDateService) Invalidate(ctx context.Context, season string) {
	prefix := seasonCachePrefix(strings.TrimSpace(season))
	s.rows.DeletePrefix(ctx, prefix)
	s.slots.DeletePrefix(ctx, prefix)
}

func (s *TourDateService) seasonRows(ctx context.Context, season string) ([]tourdate.TourDate, error) {
	return s.rows.GetOrLoad(ctx, seasonCachePrefix(season)+"all", func(ctx context.Context) ([]tourdate.TourDate, error) {
		rows, err := s.repo.ListBySeason(ctx, season)
		if err != nil {
			return nil, fmt.Errorf("list tour dates season=%s: %w", season, err)
		}
		return rows, nil
	})
}

func (s *TourDateService) resolveSeason(season string) (string, error) {
	season = strings.TrimSpace(season)
	if season == "" {
		season = s.defaultSeason
	}
	if err := ValidateSeason(season); err != nil {
		return "", err
	}
	return season, nil
}

// ValidateSeason accepts labels such as "2025-26".
func ValidateSeason(season string) error {
	if !seasonPattern.MatchString(season) {
		return fmt.Errorf("%w: season must look like 2025-26, got %q", ErrInvalidInput, season)
	}
	return nil
}

func seasonCachePrefix(season string) string {
	return "season:" + season + ":"
}
