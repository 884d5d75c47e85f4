package usecase

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
)

type SeedResult struct {
	Records  int `json:"records"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// SeedService loads sample rows without touching rows that already exist.
type SeedService struct {
	repo   tourdate.Repository
	logger *logging.Logger
}

func NewSeedService(repo tourdate.Repository, logger *logging.Logger) *SeedService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SeedService{repo: repo, logger: logger}
}

// DecodeSeed parses a JSON array of TourDateRecord.
func DecodeSeed(payload []byte) ([]tourdate.TourDate, error) {
	var records []TourDateRecord
	if err := sonic.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("%w: decode seed: %v", ErrInvalidInput, err)
	}

	out := make([]tourdate.TourDate, 0, len(records))
	for idx, record := range records {
		row, err := record.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: seed record %d: %v", ErrInvalidInput, idx, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *SeedService) Seed(ctx context.Context, rows []tourdate.TourDate) (SeedResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeedService.Seed")
	defer span.End()

	for idx, row := range rows {
		if err := row.Validate(); err != nil {
			return SeedResult{}, fmt.Errorf("%w: seed row %d (%s): %v", ErrInvalidInput, idx, row.PlayerName, err)
		}
	}
	if len(rows) == 0 {
		return SeedResult{}, nil
	}

	inserted, err := s.repo.InsertIgnore(ctx, rows)
	if err != nil {
		return SeedResult{}, fmt.Errorf("insert seed rows: %w", err)
	}

	result := SeedResult{Records: len(rows), Inserted: inserted, Skipped: len(rows) - inserted}
	s.logger.InfoContext(ctx, "seed applied", "records", result.Records, "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}
