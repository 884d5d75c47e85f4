package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/riskibarqy/tour-dates/internal/usecase"
)

type Handler struct {
	tourDateService *usecase.TourDateService
	scrapeJobs      *usecase.ScrapeScheduler
	page            *pageRenderer
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	tourDateService *usecase.TourDateService,
	scrapeJobs *usecase.ScrapeScheduler,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		tourDateService: tourDateService,
		scrapeJobs:      scrapeJobs,
		page:            newPageRenderer(),
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Index")
	defer span.End()

	overview, err := h.tourDateService.Overview(ctx, r.URL.Query().Get("season"))
	if err != nil {
		h.logger.ErrorContext(ctx, "load overview failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	if err := h.page.render(ctx, w, overview); err != nil {
		h.logger.ErrorContext(ctx, "render index failed", "error", err)
		writeInternalError(ctx, w)
	}
}

func (h *Handler) ListTourDates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTourDates")
	defer span.End()

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	season := r.URL.Query().Get("season")
	rows, err := h.tourDateService.ListRecent(ctx, season, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list tour dates failed", "season", season, "limit", limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]tourDateDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, tourDateToDTO(row))
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[tourDateDTO]{Items: items, Count: len(items)})
}

func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCalendar")
	defer span.End()

	season := r.URL.Query().Get("season")
	months, err := h.tourDateService.Calendar(ctx, season)
	if err != nil {
		h.logger.WarnContext(ctx, "get calendar failed", "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]calendarMonthDTO, 0, len(months))
	for _, month := range months {
		items = append(items, calendarMonthToDTO(month))
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[calendarMonthDTO]{Items: items, Count: len(items)})
}

func (h *Handler) ListMissingSlots(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMissingSlots")
	defer span.End()

	season := r.URL.Query().Get("season")
	slots, err := h.tourDateService.MissingSlots(ctx, season)
	if err != nil {
		h.logger.WarnContext(ctx, "list missing slots failed", "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		items = append(items, slotDTO{Month: slot.Month, Day: slot.Day, Label: slot.Label()})
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[slotDTO]{Items: items, Count: len(items)})
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput)
	}
	if limit < 1 || limit > usecase.MaxRecentLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", usecase.ErrInvalidInput, usecase.MaxRecentLimit)
	}
	return limit, nil
}
