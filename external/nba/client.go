package nba

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/riskibarqy/tour-dates/internal/platform/resilience"
	"github.com/riskibarqy/tour-dates/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://www.nba.com"
	DefaultUserAgent = "tourdates-scraper/0.1"

	schedulePath   = "/games"
	boxScoreSuffix = "/box-score"
)

var (
	errNBATransient = crerr.New("nba transient failure")
	errNBAStatus    = crerr.New("nba unexpected status")
)

type ClientConfig struct {
	HTTPClient      *http.Client
	BaseURL         string
	UserAgent       string
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RequestInterval time.Duration
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// Client scrapes the public schedule and box score pages. Requests share one
// rate limiter so parallel box score fetches stay polite.
type Client struct {
	http         *resty.Client
	baseURL      *url.URL
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
}

var _ usecase.BoxScoreSource = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	rawBase := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if rawBase == "" {
		rawBase = DefaultBaseURL
	}
	baseURL, err := url.Parse(rawBase)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid nba base url %q", rawBase)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	rc := resty.NewWithClient(httpClient).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetRetryCount(0)

	return &Client{
		http:         rc,
		baseURL:      baseURL,
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
		limiter:      rate.NewLimiter(limit, 1),
		logger:       logger,
		breaker:      resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}, nil
}

// ListGames returns the games listed on the schedule page for date, deduplicated by id.
func (c *Client) ListGames(ctx context.Context, date time.Time) ([]usecase.ScheduledGame, error) {
	date = tourdate.NormalizeDate(date)
	scheduleURL := c.baseURL.JoinPath(schedulePath)
	q := scheduleURL.Query()
	q.Set("date", date.Format(tourdate.DateLayout))
	scheduleURL.RawQuery = q.Encode()

	raw, err := c.getHTML(ctx, scheduleURL.String())
	if err != nil {
		return nil, fmt.Errorf("fetch schedule date=%s: %w", date.Format(tourdate.DateLayout), err)
	}

	games, err := parseSchedule(bytes.NewReader(raw), c.baseURL, date)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "schedule fetched", "date", date.Format(tourdate.DateLayout), "games", len(games))
	return games, nil
}

// FetchBoxScore returns every player line with at least one attempt for game.
// Rows are not filtered for eligibility.
func (c *Client) FetchBoxScore(ctx context.Context, game usecase.ScheduledGame, season string) ([]tourdate.TourDate, error) {
	if strings.TrimSpace(game.URL) == "" {
		return nil, fmt.Errorf("%w: game %s has no url", usecase.ErrInvalidInput, game.ID)
	}
	boxURL := strings.TrimRight(game.URL, "/") + boxScoreSuffix

	raw, err := c.getHTML(ctx, boxURL)
	if err != nil {
		return nil, fmt.Errorf("fetch box score game_id=%s: %w", game.ID, err)
	}
	return parseBoxScore(bytes.NewReader(raw), game, season, c.logger)
}

func (c *Client) getHTML(ctx context.Context, fullURL string) ([]byte, error) {
	var raw []byte
	err := c.breaker.Execute(func() error {
		body, reqErr := c.executeRequest(ctx, fullURL)
		raw = body
		return reqErr
	}, isNBACircuitFailure)
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "nba circuit breaker rejected request", "state", c.breaker.State(), "url", fullURL)
		return nil, fmt.Errorf("%w: box score source is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.http.R().SetContext(ctx).Get(fullURL)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = crerr.Mark(crerr.Wrap(err, "send request"), errNBATransient)
		case resp.IsSuccess():
			return resp.Body(), nil
		case isRetryableStatus(resp.StatusCode()):
			lastErr = crerr.Mark(crerr.Newf("status=%d body=%s", resp.StatusCode(), abbreviateBody(resp.Body())), errNBATransient)
		default:
			statusErr := crerr.Mark(crerr.Newf("status=%d body=%s", resp.StatusCode(), abbreviateBody(resp.Body())), errNBAStatus)
			if resp.StatusCode() == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s: %v", usecase.ErrNotFound, fullURL, statusErr)
			}
			return nil, statusErr
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "nba request failed", "url", fullURL, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

func isNBACircuitFailure(err error) bool {
	return crerr.Is(err, errNBATransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
