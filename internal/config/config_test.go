package config

import (
	"path/filepath"
	"testing"
	"time"
)

// resetEnv blanks every variable Load reads so values leaking in from the
// host environment cannot steer a test. t.Setenv restores them afterwards.
func resetEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_SERVICE_NAME", "APP_SERVICE_VERSION",
		"AOC_SESSION", "AOC_SESSION_FILE", "AOC_LEADERBOARD_IDS", "AOC_EVENT_YEAR",
		"AOC_BASE_URL", "AOC_TIMEOUT", "AOC_MAX_RETRIES",
		"AOC_CIRCUIT_ENABLED", "AOC_CIRCUIT_FAILURE_COUNT",
		"AOC_CIRCUIT_OPEN_TIMEOUT", "AOC_CIRCUIT_HALF_OPEN_MAX_REQ",
		"CACHE_ENABLED", "CACHE_PATH", "CACHE_TTL",
		"REPORT_TIMEZONE", "REPORT_WORKERS",
		"UPTRACE_ENABLED", "UPTRACE_DSN", "OTEL_EXPORTER_OTLP_HEADERS",
		"APP_LOG_LEVEL", "APP_LOG_FORMAT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	resetEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "advent-board" {
		t.Fatalf("unexpected service name: %q", cfg.ServiceName)
	}
	if cfg.AdventBaseURL != "https://adventofcode.com" {
		t.Fatalf("unexpected base url: %q", cfg.AdventBaseURL)
	}
	if cfg.AdventTimeout != 20*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.AdventTimeout)
	}
	if cfg.AdventMaxRetries != 0 {
		t.Fatalf("unexpected max retries: %d", cfg.AdventMaxRetries)
	}
	if !cfg.AdventCircuitEnabled {
		t.Fatalf("expected circuit breaker enabled by default")
	}
	if cfg.AdventCircuitFailureCount != 5 {
		t.Fatalf("unexpected circuit failure count: %d", cfg.AdventCircuitFailureCount)
	}
	if cfg.AdventCircuitOpenTimeout != 15*time.Second {
		t.Fatalf("unexpected circuit open timeout: %s", cfg.AdventCircuitOpenTimeout)
	}
	if cfg.AdventCircuitHalfOpenMaxReq != 2 {
		t.Fatalf("unexpected circuit half open max req: %d", cfg.AdventCircuitHalfOpenMaxReq)
	}
	if !cfg.CacheEnabled {
		t.Fatalf("expected cache enabled by default")
	}
	if cfg.CachePath != ".aoc.json" {
		t.Fatalf("unexpected cache path: %q", cfg.CachePath)
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Fatalf("unexpected cache ttl: %s", cfg.CacheTTL)
	}
	if cfg.ReportWorkers != 2 {
		t.Fatalf("unexpected report workers: %d", cfg.ReportWorkers)
	}
	if cfg.ReportTimezone == nil {
		t.Fatalf("expected a report timezone")
	}
	if cfg.UptraceEnabled {
		t.Fatalf("expected uptrace disabled by default")
	}
	if len(cfg.LeaderboardIDs) != 0 {
		t.Fatalf("expected no leaderboard ids by default, got %+v", cfg.LeaderboardIDs)
	}
	if cfg.EventYear != defaultEventYear(time.Now()) {
		t.Fatalf("unexpected default event year: %d", cfg.EventYear)
	}
	if cfg.LogLevel.String() != "info" {
		t.Fatalf("unexpected default log level: %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("unexpected default log format: %q", cfg.LogFormat)
	}
}

func TestLoad_SessionFromEnv(t *testing.T) {
	resetEnv(t)
	t.Setenv("AOC_SESSION", "  53616c7465645f5f0123456789abcdef  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SessionToken != "53616c7465645f5f0123456789abcdef" {
		t.Fatalf("expected trimmed session token, got %q", cfg.SessionToken)
	}
}

func TestLoad_SessionFileDefaultsToHomeConfig(t *testing.T) {
	resetEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := filepath.Join(home, ".config", "adventboard", "session")
	if cfg.SessionFile != want {
		t.Fatalf("unexpected session file: %q, want %q", cfg.SessionFile, want)
	}

	t.Run("explicit path wins", func(t *testing.T) {
		t.Setenv("AOC_SESSION_FILE", "/tmp/aoc-session")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SessionFile != "/tmp/aoc-session" {
			t.Fatalf("unexpected session file: %q", cfg.SessionFile)
		}
	})
}

func TestLoad_LeaderboardIDsParsing(t *testing.T) {
	resetEnv(t)

	t.Run("comma separated with spaces", func(t *testing.T) {
		t.Setenv("AOC_LEADERBOARD_IDS", " 123456 , 98765 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.LeaderboardIDs) != 2 || cfg.LeaderboardIDs[0] != 123456 || cfg.LeaderboardIDs[1] != 98765 {
			t.Fatalf("unexpected leaderboard ids: %+v", cfg.LeaderboardIDs)
		}
	})

	t.Run("non numeric id", func(t *testing.T) {
		t.Setenv("AOC_LEADERBOARD_IDS", "123,abc")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for non numeric leaderboard id")
		}
	})

	t.Run("non positive id", func(t *testing.T) {
		t.Setenv("AOC_LEADERBOARD_IDS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for id 0")
		}
	})
}

func TestLoad_EventYearValidation(t *testing.T) {
	resetEnv(t)

	t.Run("explicit year", func(t *testing.T) {
		t.Setenv("AOC_EVENT_YEAR", "2025")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.EventYear != 2025 {
			t.Fatalf("unexpected event year: %d", cfg.EventYear)
		}
	})

	t.Run("before first event", func(t *testing.T) {
		t.Setenv("AOC_EVENT_YEAR", "2014")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for AOC_EVENT_YEAR before 2015")
		}
	})

	t.Run("not a number", func(t *testing.T) {
		t.Setenv("AOC_EVENT_YEAR", "soon")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for non numeric AOC_EVENT_YEAR")
		}
	})
}

func TestLoad_AdventClientValidation(t *testing.T) {
	resetEnv(t)

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("AOC_TIMEOUT", "fast")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid AOC_TIMEOUT")
		}
	})

	t.Run("negative retries", func(t *testing.T) {
		t.Setenv("AOC_MAX_RETRIES", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative AOC_MAX_RETRIES")
		}
	})

	t.Run("circuit failure count below one", func(t *testing.T) {
		t.Setenv("AOC_CIRCUIT_FAILURE_COUNT", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for AOC_CIRCUIT_FAILURE_COUNT=0")
		}
	})

	t.Run("invalid circuit open timeout", func(t *testing.T) {
		t.Setenv("AOC_CIRCUIT_OPEN_TIMEOUT", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid AOC_CIRCUIT_OPEN_TIMEOUT")
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	resetEnv(t)

	t.Run("custom path and ttl", func(t *testing.T) {
		t.Setenv("CACHE_PATH", "/var/cache/adventboard/board.json")
		t.Setenv("CACHE_TTL", "2m")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.CachePath != "/var/cache/adventboard/board.json" {
			t.Fatalf("unexpected cache path: %q", cfg.CachePath)
		}
		if cfg.CacheTTL != 2*time.Minute {
			t.Fatalf("unexpected cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})

	t.Run("non positive ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "-1m")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for non positive CACHE_TTL")
		}
	})

	t.Run("cache disabled", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "false")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.CacheEnabled {
			t.Fatalf("expected CacheEnabled=false")
		}
	})
}

func TestLoad_ReportConfigParsing(t *testing.T) {
	resetEnv(t)

	t.Run("utc timezone", func(t *testing.T) {
		t.Setenv("REPORT_TIMEZONE", "UTC")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.ReportTimezone.String() != "UTC" {
			t.Fatalf("unexpected timezone: %s", cfg.ReportTimezone)
		}
	})

	t.Run("unknown timezone", func(t *testing.T) {
		t.Setenv("REPORT_TIMEZONE", "Not/AZone")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown REPORT_TIMEZONE")
		}
	})

	t.Run("workers below one", func(t *testing.T) {
		t.Setenv("REPORT_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for REPORT_WORKERS=0")
		}
	})
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	resetEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	resetEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `x-api-key=abc,uptrace-dsn="https://token@api.uptrace.dev/123"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/123" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestParseLeaderboardIDs(t *testing.T) {
	ids, err := ParseLeaderboardIDs("")
	if err != nil {
		t.Fatalf("parse empty list: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty result, got %+v", ids)
	}

	if _, err := ParseLeaderboardIDs("12,-4"); err == nil {
		t.Fatalf("expected error for negative id")
	}
}

func TestDefaultEventYear(t *testing.T) {
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2025, time.November, 30, 23, 59, 0, 0, time.UTC), 2024},
		{time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC), 2025},
		{time.Date(2026, time.August, 25, 9, 0, 0, 0, time.UTC), 2025},
	}
	for _, tc := range cases {
		if got := defaultEventYear(tc.now); got != tc.want {
			t.Fatalf("defaultEventYear(%s) = %d, want %d", tc.now.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		"WARN":    "warn",
		"warning": "warn",
		"error":   "error",
		"":        "info",
		"verbose": "info",
	}
	for in, want := range cases {
		if got := ParseLogLevel(in).String(); got != want {
			t.Fatalf("ParseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
