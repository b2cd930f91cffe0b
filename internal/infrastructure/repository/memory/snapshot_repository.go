package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/advent-board/internal/domain/snapshotcache"
)

// SnapshotRepository keeps snapshots for the lifetime of one process.
// It backs runs with the on-disk cache disabled and the usecase tests.
type SnapshotRepository struct {
	mu      sync.RWMutex
	entries map[int]snapshotcache.Entry
}

func NewSnapshotRepository(seed map[int]snapshotcache.Entry) *SnapshotRepository {
	entries := make(map[int]snapshotcache.Entry, len(seed))
	for id, entry := range seed {
		entries[id] = entry
	}

	return &SnapshotRepository{entries: entries}
}

func (r *SnapshotRepository) Load(_ context.Context) (map[int]snapshotcache.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[int]snapshotcache.Entry, len(r.entries))
	for id, entry := range r.entries {
		out[id] = entry
	}

	return out, nil
}

func (r *SnapshotRepository) Save(_ context.Context, entries map[int]snapshotcache.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[int]snapshotcache.Entry, len(entries))
	for id, entry := range entries {
		r.entries[id] = entry
	}

	return nil
}
