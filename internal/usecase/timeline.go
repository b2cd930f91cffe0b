package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/advent-board/internal/domain/leaderboard"
	"github.com/riskibarqy/advent-board/internal/platform/logging"
)

// Puzzles unlock at midnight US Eastern, 06:00 in central European time.
// The hour applies in the configured report timezone so elapsed times
// line up with the rendered clock times.
const unlockHour = 6

// Timeline flattens snapshot completion maps into a single chronological
// event stream shared by every member.
type Timeline struct {
	loc    *time.Location
	logger *logging.Logger
}

func NewTimeline(loc *time.Location, logger *logging.Logger) *Timeline {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Timeline{loc: loc, logger: logger}
}

// Events reconstructs the completion events of one snapshot. Ordering is
// deterministic for identical snapshots: timestamp first, then star key,
// then member label.
func (t *Timeline) Events(snapshot leaderboard.Snapshot) []leaderboard.CompletionEvent {
	events := make([]leaderboard.CompletionEvent, 0, completionCount(snapshot))

	for _, key := range sortedMemberKeys(snapshot.Members) {
		member := snapshot.Members[key]
		label := member.Label()

		for _, day := range sortedDays(member.Completions) {
			unlock, err := t.unlockInstant(snapshot.EventYear, day)
			if err != nil {
				t.logger.Warn("skipping completions for day outside event range",
					"day", day,
					"member", label,
					"error", err,
				)
				continue
			}

			// The second star measures from the first star when both
			// exist, otherwise from the unlock.
			start := unlock
			for _, star := range []int{leaderboard.StarOne, leaderboard.StarTwo} {
				completion, ok := member.Completions[day][star]
				if !ok {
					continue
				}

				solved := completion.Time().In(t.loc)
				events = append(events, leaderboard.CompletionEvent{
					Timestamp:   solved,
					Elapsed:     solved.Sub(start),
					MemberLabel: label,
					Star:        leaderboard.StarKey{Day: day, Star: star},
				})
				start = solved
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		if events[i].Star != events[j].Star {
			return events[i].Star.Less(events[j].Star)
		}
		return events[i].MemberLabel < events[j].MemberLabel
	})

	return events
}

func (t *Timeline) unlockInstant(year, day int) (time.Time, error) {
	if day < leaderboard.MinDay || day > leaderboard.MaxDay {
		return time.Time{}, fmt.Errorf("%w: day %d is outside %d..%d", ErrInvalidInput, day, leaderboard.MinDay, leaderboard.MaxDay)
	}

	return time.Date(year, time.December, day, unlockHour, 0, 0, 0, t.loc), nil
}

func completionCount(snapshot leaderboard.Snapshot) int {
	total := 0
	for _, member := range snapshot.Members {
		for _, stars := range member.Completions {
			total += len(stars)
		}
	}
	return total
}

func sortedMemberKeys(members map[string]leaderboard.Member) []string {
	keys := make([]string, 0, len(members))
	for key := range members {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedDays(completions map[int]map[int]leaderboard.Completion) []int {
	days := make([]int, 0, len(completions))
	for day := range completions {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}
