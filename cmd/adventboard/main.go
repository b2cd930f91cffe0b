package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/advent-board/internal/app"
	"github.com/riskibarqy/advent-board/internal/config"
	"github.com/riskibarqy/advent-board/internal/observability"
	idgen "github.com/riskibarqy/advent-board/internal/platform/id"
	"github.com/riskibarqy/advent-board/internal/platform/logging"
	"github.com/riskibarqy/advent-board/internal/usecase"
)

func main() {
	os.Exit(run())
}

func run() int {
	showAll := flag.Bool("all", false, "report every day of the event instead of just today")
	forceRefresh := flag.Bool("refresh", false, "ignore cached snapshots and refetch from adventofcode.com")
	year := flag.Int("year", 0, "event year to report (default AOC_EVENT_YEAR)")
	leaderboards := flag.String("leaderboards", "", "comma separated private leaderboard ids (default AOC_LEADERBOARD_IDS)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error (default APP_LOG_LEVEL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	if *year != 0 {
		if *year < 2015 {
			fmt.Fprintf(os.Stderr, "-year must be 2015 or later, got %d\n", *year)
			return 2
		}
		cfg.EventYear = *year
	}
	if strings.TrimSpace(*leaderboards) != "" {
		ids, err := config.ParseLeaderboardIDs(*leaderboards)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse -leaderboards: %v\n", err)
			return 2
		}
		cfg.LeaderboardIDs = ids
	}
	if strings.TrimSpace(*logLevel) != "" {
		cfg.LogLevel = config.ParseLogLevel(*logLevel)
	}
	if len(cfg.LeaderboardIDs) == 0 {
		fmt.Fprintln(os.Stderr, "no leaderboard ids configured: set AOC_LEADERBOARD_IDS or pass -leaderboards")
		return 2
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if runID, err := idgen.NewRandomGenerator().NewID(); err == nil {
		logger = logger.With("run_id", runID)
	}
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("shutdown tracing", "error", err)
		}
	}()

	service, err := app.NewReportService(cfg, logger)
	if err != nil {
		logger.Error("build report service", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := service.Run(ctx, usecase.RunInput{
		LeaderboardIDs: cfg.LeaderboardIDs,
		Year:           cfg.EventYear,
		ShowAll:        *showAll,
		ForceRefresh:   *forceRefresh,
		MaxWorkers:     cfg.ReportWorkers,
	})
	if err != nil {
		logger.ErrorContext(ctx, "report run failed", "error", err)
		return 1
	}
	if result.FailedCount > 0 {
		logger.WarnContext(ctx, "report finished with failures",
			"rendered", result.RenderedCount,
			"failed", result.FailedCount,
		)
		return 1
	}

	logger.DebugContext(ctx, "report finished",
		"leaderboards", result.LeaderboardCount,
		"workers", result.WorkerCount,
	)

	return 0
}
