package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/advent-board/internal/domain/leaderboard"
	"github.com/riskibarqy/advent-board/internal/platform/logging"
)

// ReportRenderer turns a prepared report into user-facing output.
type ReportRenderer interface {
	Render(report Report) error
}

// Report is everything the renderer needs for one leaderboard.
type Report struct {
	LeaderboardID int
	EventYear     int
	FilterToday   bool
	Events        []ScoredEvent
	Standings     []MemberScore
}

// ScoredEvent is a timeline event with the score it earned.
type ScoredEvent struct {
	leaderboard.CompletionEvent
	Score int
}

type RunInput struct {
	LeaderboardIDs []int
	Year           int
	ShowAll        bool
	ForceRefresh   bool
	MaxWorkers     int
}

type RunResult struct {
	LeaderboardCount int
	WorkerCount      int
	RenderedCount    int
	FailedCount      int
}

// ReportService prepares and renders reports for a set of leaderboards.
// Snapshots are prepared concurrently, rendering stays sequential in the
// requested order. One failing leaderboard does not stop the others.
type ReportService struct {
	snapshots *SnapshotService
	timeline  *Timeline
	renderer  ReportRenderer
	logger    *logging.Logger
}

func NewReportService(snapshots *SnapshotService, timeline *Timeline, renderer ReportRenderer, logger *logging.Logger) *ReportService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ReportService{
		snapshots: snapshots,
		timeline:  timeline,
		renderer:  renderer,
		logger:    logger,
	}
}

func (s *ReportService) Run(ctx context.Context, input RunInput) (RunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.Run")
	defer span.End()

	if s.snapshots == nil || s.timeline == nil || s.renderer == nil {
		return RunResult{}, fmt.Errorf("%w: report service is not fully configured", ErrDependencyUnavailable)
	}

	ids := dedupeLeaderboardIDs(input.LeaderboardIDs)
	if len(ids) == 0 {
		return RunResult{}, fmt.Errorf("%w: at least one leaderboard id is required", ErrInvalidInput)
	}
	if input.Year < leaderboard.FirstEventYear {
		return RunResult{}, fmt.Errorf("%w: event year %d predates the first event (%d)", ErrInvalidInput, input.Year, leaderboard.FirstEventYear)
	}

	workerCount := normalizeReportWorkerCount(input.MaxWorkers, len(ids))
	result := RunResult{
		LeaderboardCount: len(ids),
		WorkerCount:      workerCount,
	}

	type preparedReport struct {
		index  int
		id     int
		report Report
		err    error
	}

	results := make(chan preparedReport, len(ids))

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RunResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for index, id := range ids {
		index, id := index, id
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			report, prepareErr := s.prepare(ctx, id, input)
			if prepareErr == nil {
				s.logger.DebugContext(ctx, "prepared leaderboard report",
					"leaderboard_id", id,
					"events", len(report.Events),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}

			results <- preparedReport{index: index, id: id, report: report, err: prepareErr}
		}); err != nil {
			workers.Done()
			return RunResult{}, fmt.Errorf("submit leaderboard to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	rows := make([]preparedReport, 0, len(ids))
	for row := range results {
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].index < rows[j].index
	})

	for _, row := range rows {
		if row.err != nil {
			result.FailedCount++
			if errors.Is(row.err, ErrAuthRejected) {
				s.logger.ErrorContext(ctx, "leaderboard fetch was rejected, refresh the AOC_SESSION cookie from a logged-in browser session",
					"leaderboard_id", row.id,
					"error", row.err,
				)
			} else {
				s.logger.ErrorContext(ctx, "leaderboard report failed",
					"leaderboard_id", row.id,
					"error", row.err,
				)
			}
			continue
		}

		if err := s.renderer.Render(row.report); err != nil {
			result.FailedCount++
			s.logger.ErrorContext(ctx, "render leaderboard report",
				"leaderboard_id", row.id,
				"error", err,
			)
			continue
		}
		result.RenderedCount++
	}

	return result, nil
}

func (s *ReportService) prepare(ctx context.Context, leaderboardID int, input RunInput) (Report, error) {
	snapshot, err := s.snapshots.Get(ctx, leaderboardID, input.Year, input.ForceRefresh)
	if err != nil {
		return Report{}, err
	}

	events := s.timeline.Events(snapshot)
	board := NewScoreBoard(len(snapshot.Members))

	scored := make([]ScoredEvent, 0, len(events))
	for _, event := range events {
		scored = append(scored, ScoredEvent{
			CompletionEvent: event,
			Score:           board.Apply(event),
		})
	}

	return Report{
		LeaderboardID: leaderboardID,
		EventYear:     snapshot.EventYear,
		FilterToday:   !input.ShowAll,
		Events:        scored,
		Standings:     board.Standings(),
	}, nil
}

func dedupeLeaderboardIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

func normalizeReportWorkerCount(value int, boardCount int) int {
	if boardCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > 2 {
		value = 2
	}
	if value > boardCount {
		value = boardCount
	}
	return value
}
