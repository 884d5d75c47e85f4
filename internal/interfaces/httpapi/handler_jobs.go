package httpapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/usecase"
)

const maxJobPayloadBytes = 64 << 10

type scrapeJobRequest struct {
	Season string `json:"season" validate:"omitempty,len=7"`
	Since  string `json:"since" validate:"omitempty,datetime=2006-01-02"`
	Until  string `json:"until" validate:"omitempty,datetime=2006-01-02"`
	DryRun bool   `json:"dry_run"`
}

// RunScrapeJob runs one scrape synchronously and returns its summary.
func (h *Handler) RunScrapeJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunScrapeJob")
	defer span.End()

	if h.scrapeJobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: scrape job is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeScrapeJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.scrapeJobs.Trigger(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "run scrape job failed",
			"season", req.Season,
			"since", req.Since,
			"until", req.Until,
			"dry_run", req.DryRun,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "scrape job completed",
		"run_id", result.RunID,
		"season", result.Season,
		"written", result.Written,
	)
	writeSuccess(ctx, w, http.StatusOK, result)
}

func decodeScrapeJobRequest(r *http.Request) (scrapeJobRequest, error) {
	if r.Body == nil {
		return scrapeJobRequest{}, nil
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxJobPayloadBytes))
	if err != nil {
		return scrapeJobRequest{}, fmt.Errorf("%w: read payload: %v", usecase.ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return scrapeJobRequest{}, nil
	}

	decoder := sonic.ConfigDefault.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()

	var req scrapeJobRequest
	if err := decoder.Decode(&req); err != nil {
		return scrapeJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

func (req scrapeJobRequest) toInput() (usecase.ScrapeInput, error) {
	since, err := parseOptionalDate(req.Since)
	if err != nil {
		return usecase.ScrapeInput{}, err
	}
	until, err := parseOptionalDate(req.Until)
	if err != nil {
		return usecase.ScrapeInput{}, err
	}

	return usecase.ScrapeInput{
		Season: strings.TrimSpace(req.Season),
		Since:  since,
		Until:  until,
		DryRun: req.DryRun,
	}, nil
}

func parseOptionalDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := tourdate.ParseGameDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return parsed, nil
}
