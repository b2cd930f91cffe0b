package leaderboard

import (
	"fmt"
	"time"
)

const (
	// FirstEventYear is the first year the puzzle event ran.
	FirstEventYear = 2015

	MinDay = 1
	MaxDay = 25

	StarOne = 1
	StarTwo = 2
)

// Snapshot is one fetched state of a private leaderboard.
type Snapshot struct {
	EventYear int
	OwnerID   int
	Members   map[string]Member
}

func (s Snapshot) Validate() error {
	if s.EventYear < FirstEventYear {
		return fmt.Errorf("event year %d predates the first event (%d)", s.EventYear, FirstEventYear)
	}
	if s.Members == nil {
		return fmt.Errorf("snapshot members map is required")
	}

	return nil
}

// Member is one participant. Completions maps day then star index to the
// recorded completion.
type Member struct {
	ID          int
	Name        DisplayName
	Completions map[int]map[int]Completion
}

// Label is the name shown on reports. Members who withheld their name
// render as Anonymous tagged with their numeric id, which stays stable
// across fetches.
func (m Member) Label() string {
	if name, ok := m.Name.Value(); ok {
		return name
	}
	return fmt.Sprintf("Anonymous#%d", m.ID)
}

// Completion records when a member collected one star.
type Completion struct {
	SolvedAt int64
}

func (c Completion) Time() time.Time {
	return time.Unix(c.SolvedAt, 0)
}

// DisplayName distinguishes a real name from a withheld one. The zero
// value is anonymous.
type DisplayName struct {
	value string
	named bool
}

func NewDisplayName(value string) DisplayName {
	if value == "" {
		return DisplayName{}
	}
	return DisplayName{value: value, named: true}
}

func (d DisplayName) Value() (string, bool) {
	return d.value, d.named
}

// StarKey identifies one puzzle star, e.g. day 3 star 2.
type StarKey struct {
	Day  int
	Star int
}

func (k StarKey) String() string {
	return fmt.Sprintf("%02d-%d", k.Day, k.Star)
}

func (k StarKey) Less(other StarKey) bool {
	if k.Day != other.Day {
		return k.Day < other.Day
	}
	return k.Star < other.Star
}

// CompletionEvent is one star collection placed on the shared timeline.
// Elapsed measures from the puzzle unlock for the first star and from
// the previous star of the same day for the second.
type CompletionEvent struct {
	Timestamp   time.Time
	Elapsed     time.Duration
	MemberLabel string
	Star        StarKey
}
