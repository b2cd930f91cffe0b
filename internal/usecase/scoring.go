package usecase

import (
	"sort"

	"github.com/riskibarqy/advent-board/internal/domain/leaderboard"
)

// MemberScore is one row of the final standings.
type MemberScore struct {
	Label string
	Score int
}

// ScoreBoard awards decaying points per star: the first member to finish
// a star earns maxScore, the next one less, and so on. Events must be
// applied in timeline order.
type ScoreBoard struct {
	maxScore int
	pools    map[leaderboard.StarKey]int
	totals   map[string]int
}

// NewScoreBoard builds a board where maxScore is usually the member
// count of the snapshot, finishing position decides the rest.
func NewScoreBoard(maxScore int) *ScoreBoard {
	if maxScore < 0 {
		maxScore = 0
	}

	return &ScoreBoard{
		maxScore: maxScore,
		pools:    make(map[leaderboard.StarKey]int),
		totals:   make(map[string]int),
	}
}

// Apply awards the current pool value for the event's star to the
// event's member and returns the awarded score.
func (b *ScoreBoard) Apply(event leaderboard.CompletionEvent) int {
	pool, ok := b.pools[event.Star]
	if !ok {
		pool = b.maxScore
	}

	b.pools[event.Star] = pool - 1
	b.totals[event.MemberLabel] += pool

	return pool
}

// Total returns the accumulated score for a member label.
func (b *ScoreBoard) Total(label string) int {
	return b.totals[label]
}

// Standings lists every member that scored, highest total first. Ties
// order by label so repeated runs print identically.
func (b *ScoreBoard) Standings() []MemberScore {
	out := make([]MemberScore, 0, len(b.totals))
	for label, score := range b.totals {
		out = append(out, MemberScore{Label: label, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label < out[j].Label
	})

	return out
}
