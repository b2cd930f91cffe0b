package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/advent-board/internal/platform/logging"
)

// Config stores runtime configuration for one report run.
type Config struct {
	ServiceName    string
	ServiceVersion string

	SessionToken string
	SessionFile  string

	LeaderboardIDs []int
	EventYear      int

	AdventBaseURL    string
	AdventTimeout    time.Duration
	AdventMaxRetries int

	AdventCircuitEnabled        bool
	AdventCircuitFailureCount   int
	AdventCircuitOpenTimeout    time.Duration
	AdventCircuitHalfOpenMaxReq int

	CacheEnabled bool
	CachePath    string
	CacheTTL     time.Duration

	ReportTimezone *time.Location
	ReportWorkers  int

	UptraceEnabled bool
	UptraceDSN     string

	LogLevel  logging.Level
	LogFormat logging.Format
}

func Load() (Config, error) {
	cfg := Config{}

	cfg.ServiceName = getEnv("APP_SERVICE_NAME", "advent-board")
	cfg.ServiceVersion = getEnv("APP_SERVICE_VERSION", "dev")

	cfg.SessionToken = strings.TrimSpace(getEnv("AOC_SESSION", ""))
	cfg.SessionFile = strings.TrimSpace(getEnv("AOC_SESSION_FILE", defaultSessionFile()))

	leaderboardIDs, err := ParseLeaderboardIDs(getEnv("AOC_LEADERBOARD_IDS", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse AOC_LEADERBOARD_IDS: %w", err)
	}
	cfg.LeaderboardIDs = leaderboardIDs

	eventYear, err := getEnvAsInt("AOC_EVENT_YEAR", defaultEventYear(time.Now()))
	if err != nil {
		return Config{}, fmt.Errorf("parse AOC_EVENT_YEAR: %w", err)
	}
	if eventYear < 2015 {
		return Config{}, fmt.Errorf("AOC_EVENT_YEAR must be >= 2015, got %d", eventYear)
	}
	cfg.EventYear = eventYear

	cfg.AdventBaseURL = strings.TrimSpace(getEnv("AOC_BASE_URL", "https://adventofcode.com"))

	adventTimeout, err := time.ParseDuration(getEnv("AOC_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AOC_TIMEOUT: %w", err)
	}
	if adventTimeout <= 0 {
		return Config{}, fmt.Errorf("AOC_TIMEOUT must be > 0")
	}
	cfg.AdventTimeout = adventTimeout

	adventMaxRetries, err := getEnvAsInt("AOC_MAX_RETRIES", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse AOC_MAX_RETRIES: %w", err)
	}
	if adventMaxRetries < 0 {
		return Config{}, fmt.Errorf("AOC_MAX_RETRIES must be >= 0")
	}
	cfg.AdventMaxRetries = adventMaxRetries

	adventCircuitEnabled, err := strconv.ParseBool(getEnv("AOC_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AOC_CIRCUIT_ENABLED: %w", err)
	}
	cfg.AdventCircuitEnabled = adventCircuitEnabled

	adventCircuitFailureCount, err := getEnvAsInt("AOC_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse AOC_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if adventCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("AOC_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cfg.AdventCircuitFailureCount = adventCircuitFailureCount

	adventCircuitOpenTimeout, err := time.ParseDuration(getEnv("AOC_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AOC_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if adventCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("AOC_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	cfg.AdventCircuitOpenTimeout = adventCircuitOpenTimeout

	adventCircuitHalfOpenMaxReq, err := getEnvAsInt("AOC_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse AOC_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if adventCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("AOC_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	cfg.AdventCircuitHalfOpenMaxReq = adventCircuitHalfOpenMaxReq

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CachePath = strings.TrimSpace(getEnv("CACHE_PATH", ".aoc.json"))

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "15m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cfg.CacheTTL = cacheTTL

	reportTimezone, err := parseTimezone(getEnv("REPORT_TIMEZONE", "Local"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REPORT_TIMEZONE: %w", err)
	}
	cfg.ReportTimezone = reportTimezone

	reportWorkers, err := getEnvAsInt("REPORT_WORKERS", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse REPORT_WORKERS: %w", err)
	}
	if reportWorkers < 1 {
		return Config{}, fmt.Errorf("REPORT_WORKERS must be >= 1")
	}
	cfg.ReportWorkers = reportWorkers

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	cfg.UptraceEnabled = uptraceEnabled
	cfg.UptraceDSN = uptraceDSN

	cfg.LogLevel = ParseLogLevel(getEnv("APP_LOG_LEVEL", "info"))
	cfg.LogFormat = parseLogFormat(getEnv("APP_LOG_FORMAT", "console"))

	return cfg, nil
}

// ParseLeaderboardIDs parses a comma separated list of private leaderboard
// IDs. Both AOC_LEADERBOARD_IDS and the -leaderboards flag feed through here.
func ParseLeaderboardIDs(raw string) ([]int, error) {
	items := splitCSV(raw)
	out := make([]int, 0, len(items))
	for _, item := range items {
		id, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("invalid leaderboard id %q: %w", item, err)
		}
		if id <= 0 {
			return nil, fmt.Errorf("leaderboard id must be > 0, got %d", id)
		}
		out = append(out, id)
	}

	return out, nil
}

// ParseLogLevel maps a level name onto a logger level, defaulting to info.
func ParseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseLogFormat(v string) logging.Format {
	if strings.EqualFold(strings.TrimSpace(v), "json") {
		return logging.FormatJSON
	}

	return logging.FormatConsole
}

// defaultEventYear picks the event most likely being played: the current
// year once December starts, the previous event the rest of the year.
func defaultEventYear(now time.Time) int {
	if now.Month() == time.December {
		return now.Year()
	}

	return now.Year() - 1
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "adventboard", "session")
}

func parseTimezone(v string) (*time.Location, error) {
	name := strings.TrimSpace(v)
	if name == "" {
		name = "Local"
	}

	return time.LoadLocation(name)
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
