package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/advent-board/internal/domain/leaderboard"
	"github.com/riskibarqy/advent-board/internal/domain/snapshotcache"
	"github.com/riskibarqy/advent-board/internal/platform/logging"
)

const defaultSnapshotTTL = 15 * time.Minute

// SnapshotProvider fetches the live state of a private leaderboard.
type SnapshotProvider interface {
	FetchLeaderboard(ctx context.Context, leaderboardID, year int) (leaderboard.Snapshot, error)
}

// SnapshotService serves leaderboard snapshots, preferring the local
// cache while an entry is inside its TTL. Cache problems degrade to a
// fresh fetch and never fail a report.
type SnapshotService struct {
	cache    snapshotcache.Repository
	provider SnapshotProvider
	ttl      time.Duration
	logger   *logging.Logger
	now      func() time.Time

	persistMu sync.Mutex
}

func NewSnapshotService(cache snapshotcache.Repository, provider SnapshotProvider, ttl time.Duration, logger *logging.Logger) *SnapshotService {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SnapshotService{
		cache:    cache,
		provider: provider,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns a snapshot for the leaderboard, from cache when fresh and
// from the provider otherwise. forceRefresh skips the cache read but
// still stores the fetched snapshot.
func (s *SnapshotService) Get(ctx context.Context, leaderboardID, year int, forceRefresh bool) (leaderboard.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.Get")
	defer span.End()

	if s.cache == nil || s.provider == nil {
		return leaderboard.Snapshot{}, fmt.Errorf("%w: snapshot service is not fully configured", ErrDependencyUnavailable)
	}
	if leaderboardID <= 0 {
		return leaderboard.Snapshot{}, fmt.Errorf("%w: leaderboard id must be greater than zero", ErrInvalidInput)
	}
	if year < leaderboard.FirstEventYear {
		return leaderboard.Snapshot{}, fmt.Errorf("%w: event year %d predates the first event (%d)", ErrInvalidInput, year, leaderboard.FirstEventYear)
	}

	if !forceRefresh {
		entries := s.loadEntries(ctx)
		if entry, ok := entries[leaderboardID]; ok && entry.Snapshot.EventYear == year && entry.FreshAt(s.now(), s.ttl) {
			s.logger.DebugContext(ctx, "serving leaderboard snapshot from cache",
				"leaderboard_id", leaderboardID,
				"fetched_at", entry.FetchedAt,
			)
			return entry.Snapshot, nil
		}
	}

	snapshot, err := s.provider.FetchLeaderboard(ctx, leaderboardID, year)
	if err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("fetch leaderboard %d: %w", leaderboardID, err)
	}

	s.logger.InfoContext(ctx, "fetched leaderboard snapshot",
		"leaderboard_id", leaderboardID,
		"event_year", snapshot.EventYear,
		"members", len(snapshot.Members),
	)

	s.persist(ctx, leaderboardID, snapshotcache.Entry{
		FetchedAt: s.now().UTC(),
		Snapshot:  snapshot,
	})

	return snapshot, nil
}

// loadEntries reads the cache and degrades to an empty set on any load
// problem, so a corrupt or unreadable file only costs a refetch.
func (s *SnapshotService) loadEntries(ctx context.Context) map[int]snapshotcache.Entry {
	entries, err := s.cache.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrCacheCorrupt) {
			s.logger.WarnContext(ctx, "snapshot cache is corrupt, continuing with an empty cache", "error", err)
		} else {
			s.logger.WarnContext(ctx, "snapshot cache load failed, continuing with an empty cache", "error", err)
		}
		return make(map[int]snapshotcache.Entry)
	}
	if entries == nil {
		entries = make(map[int]snapshotcache.Entry)
	}

	return entries
}

func (s *SnapshotService) persist(ctx context.Context, leaderboardID int, entry snapshotcache.Entry) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	// Reload under the lock so concurrent fetches of other leaderboards
	// are not overwritten by a stale read-modify-write.
	entries := s.loadEntries(ctx)
	entries[leaderboardID] = entry

	if err := s.cache.Save(ctx, entries); err != nil {
		s.logger.WarnContext(ctx, "persist snapshot cache failed, continuing with the fetched snapshot",
			"leaderboard_id", leaderboardID,
			"error", err,
		)
	}
}
