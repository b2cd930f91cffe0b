package filecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/advent-board/internal/domain/leaderboard"
	"github.com/riskibarqy/advent-board/internal/domain/snapshotcache"
	"github.com/riskibarqy/advent-board/internal/usecase"
)

// SnapshotRepository persists snapshots as a single JSON file so cached
// leaderboards survive between CLI runs. Writes go through a temp file
// rename, a crash mid-save leaves the previous cache intact.
type SnapshotRepository struct {
	mu   sync.Mutex
	path string
}

func NewSnapshotRepository(path string) (*SnapshotRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("snapshot cache path is required")
	}

	return &SnapshotRepository{path: path}, nil
}

func (r *SnapshotRepository) Load(_ context.Context) (map[int]snapshotcache.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[int]snapshotcache.Entry), nil
		}
		return nil, fmt.Errorf("read snapshot cache %s: %w", r.path, err)
	}

	var file map[int]entryModel
	if err := sonic.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", usecase.ErrCacheCorrupt, r.path, err)
	}

	entries := make(map[int]snapshotcache.Entry, len(file))
	for id, model := range file {
		entries[id] = model.toEntry()
	}

	return entries, nil
}

func (r *SnapshotRepository) Save(_ context.Context, entries map[int]snapshotcache.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file := make(map[int]entryModel, len(entries))
	for id, entry := range entries {
		file[id] = newEntryModel(entry)
	}

	raw, err := sonic.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode snapshot cache: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot cache directory %s: %w", dir, err)
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write snapshot cache %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace snapshot cache %s: %w", r.path, err)
	}

	return nil
}

type entryModel struct {
	FetchedAt time.Time     `json:"fetched_at"`
	Snapshot  snapshotModel `json:"snapshot"`
}

type snapshotModel struct {
	EventYear int                    `json:"event_year"`
	OwnerID   int                    `json:"owner_id"`
	Members   map[string]memberModel `json:"members"`
}

type memberModel struct {
	ID          int                             `json:"id"`
	Name        *string                         `json:"name"`
	Completions map[int]map[int]completionModel `json:"completions,omitempty"`
}

type completionModel struct {
	SolvedAt int64 `json:"solved_at"`
}

func newEntryModel(entry snapshotcache.Entry) entryModel {
	members := make(map[string]memberModel, len(entry.Snapshot.Members))
	for key, member := range entry.Snapshot.Members {
		members[key] = newMemberModel(member)
	}

	return entryModel{
		FetchedAt: entry.FetchedAt.UTC(),
		Snapshot: snapshotModel{
			EventYear: entry.Snapshot.EventYear,
			OwnerID:   entry.Snapshot.OwnerID,
			Members:   members,
		},
	}
}

func newMemberModel(member leaderboard.Member) memberModel {
	model := memberModel{ID: member.ID}
	if name, ok := member.Name.Value(); ok {
		model.Name = &name
	}

	if len(member.Completions) == 0 {
		return model
	}

	model.Completions = make(map[int]map[int]completionModel, len(member.Completions))
	for day, stars := range member.Completions {
		row := make(map[int]completionModel, len(stars))
		for star, completion := range stars {
			row[star] = completionModel{SolvedAt: completion.SolvedAt}
		}
		model.Completions[day] = row
	}

	return model
}

func (m entryModel) toEntry() snapshotcache.Entry {
	members := make(map[string]leaderboard.Member, len(m.Snapshot.Members))
	for key, model := range m.Snapshot.Members {
		members[key] = model.toMember()
	}

	return snapshotcache.Entry{
		FetchedAt: m.FetchedAt,
		Snapshot: leaderboard.Snapshot{
			EventYear: m.Snapshot.EventYear,
			OwnerID:   m.Snapshot.OwnerID,
			Members:   members,
		},
	}
}

func (m memberModel) toMember() leaderboard.Member {
	member := leaderboard.Member{ID: m.ID}
	if m.Name != nil {
		member.Name = leaderboard.NewDisplayName(strings.TrimSpace(*m.Name))
	}

	if len(m.Completions) == 0 {
		return member
	}

	member.Completions = make(map[int]map[int]leaderboard.Completion, len(m.Completions))
	for day, stars := range m.Completions {
		row := make(map[int]leaderboard.Completion, len(stars))
		for star, model := range stars {
			row[star] = leaderboard.Completion{SolvedAt: model.SolvedAt}
		}
		member.Completions[day] = row
	}

	return member
}
