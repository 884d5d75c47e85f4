package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/tour-dates/internal/platform/logging"
)

const DefaultSeason = "2025-26"

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string

	DBPath        string
	DBBusyTimeout time.Duration
	DBAutoInit    bool
	DBSeed        bool

	Season       string
	RecentLimit  int
	CacheEnabled bool
	CacheTTL     time.Duration

	NBABaseURL               string
	NBAUserAgent             string
	NBATimeout               time.Duration
	NBAMaxRetries            int
	NBARetryBackoff          time.Duration
	NBARequestInterval       time.Duration
	NBACircuitEnabled        bool
	NBACircuitFailureCount   int
	NBACircuitOpenTimeout    time.Duration
	NBACircuitHalfOpenMaxReq int
	ScraperWorkers           int

	InternalJobToken    string
	JobScrapeEnabled    bool
	JobScrapeInterval   time.Duration
	JobScrapeRunOnStart bool
	JobScrapeTimeout    time.Duration

	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	LogLevel                   logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                 appEnv,
		ServiceName:            getEnv("APP_SERVICE_NAME", "tour-dates-api"),
		ServiceVersion:         getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:               getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DBPath:                 strings.TrimSpace(getEnv("DB_PATH", "tourdates.db")),
		Season:                 strings.TrimSpace(getEnv("TOURDATES_SEASON", DefaultSeason)),
		NBABaseURL:             strings.TrimSpace(getEnv("NBA_BASE_URL", "https://www.nba.com")),
		NBAUserAgent:           strings.TrimSpace(getEnv("NBA_USER_AGENT", "tourdates-scraper/0.1")),
		InternalJobToken:       strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		PprofAddr:              strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		PyroscopeServerAddress: strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		LogLevel:               logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("DB_PATH cannot be empty")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if err := loadHTTP(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadStore(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadScraper(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadJobs(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadHTTP(cfg *Config) error {
	var err error
	if cfg.ReadTimeout, err = getEnvAsPositiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return err
	}
	// Synchronous scrape jobs hold the connection for the whole run.
	if cfg.WriteTimeout, err = getEnvAsPositiveDuration("APP_WRITE_TIMEOUT", "15m"); err != nil {
		return err
	}
	return nil
}

func loadStore(cfg *Config) error {
	var err error
	if cfg.DBBusyTimeout, err = getEnvAsPositiveDuration("DB_BUSY_TIMEOUT", "5s"); err != nil {
		return err
	}
	if cfg.DBAutoInit, err = getEnvAsBool("DB_AUTO_INIT", "true"); err != nil {
		return err
	}
	if cfg.DBSeed, err = getEnvAsBool("DB_SEED", "true"); err != nil {
		return err
	}

	if cfg.RecentLimit, err = getEnvAsInt("RECENT_LIMIT", 10); err != nil {
		return fmt.Errorf("parse RECENT_LIMIT: %w", err)
	}
	if cfg.RecentLimit < 1 || cfg.RecentLimit > 100 {
		return fmt.Errorf("RECENT_LIMIT must be between 1 and 100")
	}
	if cfg.CacheEnabled, err = getEnvAsBool("CACHE_ENABLED", "true"); err != nil {
		return err
	}
	if cfg.CacheTTL, err = getEnvAsPositiveDuration("CACHE_TTL", "60s"); err != nil {
		return err
	}
	return nil
}

func loadScraper(cfg *Config) error {
	if cfg.NBABaseURL == "" {
		return fmt.Errorf("NBA_BASE_URL cannot be empty")
	}

	var err error
	if cfg.NBATimeout, err = getEnvAsPositiveDuration("NBA_TIMEOUT", "20s"); err != nil {
		return err
	}
	if cfg.NBAMaxRetries, err = getEnvAsInt("NBA_MAX_RETRIES", 2); err != nil {
		return fmt.Errorf("parse NBA_MAX_RETRIES: %w", err)
	}
	if cfg.NBAMaxRetries < 0 {
		return fmt.Errorf("NBA_MAX_RETRIES must be >= 0")
	}
	if cfg.NBARetryBackoff, err = getEnvAsPositiveDuration("NBA_RETRY_BACKOFF", "1s"); err != nil {
		return err
	}
	if cfg.NBARequestInterval, err = getEnvAsPositiveDuration("NBA_REQUEST_INTERVAL", "500ms"); err != nil {
		return err
	}
	if cfg.NBACircuitEnabled, err = getEnvAsBool("NBA_CIRCUIT_ENABLED", "true"); err != nil {
		return err
	}
	if cfg.NBACircuitFailureCount, err = getEnvAsInt("NBA_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return fmt.Errorf("parse NBA_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.NBACircuitFailureCount < 1 {
		return fmt.Errorf("NBA_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.NBACircuitOpenTimeout, err = getEnvAsPositiveDuration("NBA_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return err
	}
	if cfg.NBACircuitHalfOpenMaxReq, err = getEnvAsInt("NBA_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return fmt.Errorf("parse NBA_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cfg.NBACircuitHalfOpenMaxReq < 1 {
		return fmt.Errorf("NBA_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	if cfg.ScraperWorkers, err = getEnvAsInt("SCRAPER_WORKERS", 4); err != nil {
		return fmt.Errorf("parse SCRAPER_WORKERS: %w", err)
	}
	if cfg.ScraperWorkers < 1 {
		return fmt.Errorf("SCRAPER_WORKERS must be >= 1")
	}
	return nil
}

func loadJobs(cfg *Config) error {
	var err error
	if cfg.JobScrapeEnabled, err = getEnvAsBool("JOB_SCRAPE_ENABLED", "false"); err != nil {
		return err
	}
	if cfg.JobScrapeInterval, err = getEnvAsPositiveDuration("JOB_SCRAPE_INTERVAL", "6h"); err != nil {
		return err
	}
	if cfg.JobScrapeRunOnStart, err = getEnvAsBool("JOB_SCRAPE_RUN_ON_START", "false"); err != nil {
		return err
	}
	if cfg.JobScrapeTimeout, err = getEnvAsPositiveDuration("JOB_SCRAPE_TIMEOUT", "30m"); err != nil {
		return err
	}
	return nil
}

func loadObservability(cfg *Config) error {
	var err error
	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", "false"); err != nil {
		return err
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", "false"); err != nil {
		return err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.UptraceLogsEnabled, err = getEnvAsBool("UPTRACE_LOGS_ENABLED", "true"); err != nil {
		return err
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", "false"); err != nil {
		return err
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key, fallback string) (bool, error) {
	out, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
