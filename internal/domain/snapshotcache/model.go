package snapshotcache

import (
	"time"

	"github.com/riskibarqy/advent-board/internal/domain/leaderboard"
)

// Entry is one cached leaderboard snapshot together with its fetch time.
type Entry struct {
	FetchedAt time.Time
	Snapshot  leaderboard.Snapshot
}

// FreshAt reports whether the entry is still inside its TTL. An entry
// fetched exactly ttl ago is stale.
func (e Entry) FreshAt(now time.Time, ttl time.Duration) bool {
	if e.FetchedAt.IsZero() || ttl <= 0 {
		return false
	}
	return now.Before(e.FetchedAt.Add(ttl))
}
