package snapshotcache

import "context"

// Repository persists snapshots between runs keyed by leaderboard id.
// Load returns every stored entry so that Save can write the full set
// back without losing entries for other leaderboards.
type Repository interface {
	Load(ctx context.Context) (map[int]Entry, error)
	Save(ctx context.Context, entries map[int]Entry) error
}
