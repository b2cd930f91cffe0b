package app

import (
	"fmt"
	"os"

	"github.com/riskibarqy/advent-board/external/advent"
	"github.com/riskibarqy/advent-board/internal/config"
	"github.com/riskibarqy/advent-board/internal/domain/snapshotcache"
	"github.com/riskibarqy/advent-board/internal/infrastructure/repository/filecache"
	"github.com/riskibarqy/advent-board/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/advent-board/internal/interfaces/console"
	"github.com/riskibarqy/advent-board/internal/platform/logging"
	"github.com/riskibarqy/advent-board/internal/platform/resilience"
	"github.com/riskibarqy/advent-board/internal/usecase"
)

// NewReportService wires the snapshot cache, the adventofcode.com client and
// the console renderer into a ready to run report service.
func NewReportService(cfg config.Config, logger *logging.Logger) (*usecase.ReportService, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var cache snapshotcache.Repository
	if cfg.CacheEnabled {
		fileCache, err := filecache.NewSnapshotRepository(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open snapshot cache: %w", err)
		}
		cache = fileCache
		logger.Debug("snapshot cache enabled", "path", cfg.CachePath, "ttl", cfg.CacheTTL.String())
	} else {
		cache = memory.NewSnapshotRepository(nil)
		logger.Debug("snapshot cache disabled, every run refetches")
	}

	session, err := advent.ResolveSession(cfg.SessionToken, cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	client := advent.NewClient(advent.ClientConfig{
		BaseURL:    cfg.AdventBaseURL,
		Session:    session,
		Timeout:    cfg.AdventTimeout,
		MaxRetries: cfg.AdventMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.AdventCircuitEnabled,
			FailureThreshold: cfg.AdventCircuitFailureCount,
			OpenTimeout:      cfg.AdventCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AdventCircuitHalfOpenMaxReq,
		},
	})

	snapshots := usecase.NewSnapshotService(cache, client, cfg.CacheTTL, logger)
	timeline := usecase.NewTimeline(cfg.ReportTimezone, logger)
	renderer := console.NewRenderer(os.Stdout, cfg.ReportTimezone)

	return usecase.NewReportService(snapshots, timeline, renderer, logger), nil
}
