package advent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riskibarqy/advent-board/internal/domain/leaderboard"
)

// Wire shapes of {year}/leaderboard/private/view/{id}.json. Day and star
// numbers arrive as JSON object keys, the event year as a string.
type boardEnvelope struct {
	Event   string                     `json:"event" validate:"required"`
	OwnerID int                        `json:"owner_id" validate:"required"`
	Members map[string]boardMemberWire `json:"members" validate:"required,dive"`
}

type boardMemberWire struct {
	ID                 int                                      `json:"id" validate:"required"`
	Name               *string                                  `json:"name"`
	Stars              int                                      `json:"stars"`
	LastStarTS         int64                                    `json:"last_star_ts"`
	CompletionDayLevel map[string]map[string]completionStarWire `json:"completion_day_level" validate:"omitempty,dive,dive"`
}

type completionStarWire struct {
	GetStarTS int64 `json:"get_star_ts" validate:"required"`
	StarIndex int64 `json:"star_index"`
}

func mapBoardToSnapshot(envelope boardEnvelope) (leaderboard.Snapshot, error) {
	year, err := strconv.Atoi(strings.TrimSpace(envelope.Event))
	if err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("parse event year %q: %w", envelope.Event, err)
	}

	members := make(map[string]leaderboard.Member, len(envelope.Members))
	for key, wire := range envelope.Members {
		members[key] = mapMemberWire(wire)
	}

	snapshot := leaderboard.Snapshot{
		EventYear: year,
		OwnerID:   envelope.OwnerID,
		Members:   members,
	}
	if err := snapshot.Validate(); err != nil {
		return leaderboard.Snapshot{}, err
	}

	return snapshot, nil
}

func mapMemberWire(wire boardMemberWire) leaderboard.Member {
	member := leaderboard.Member{
		ID:   wire.ID,
		Name: displayNameFromWire(wire.Name),
	}

	if len(wire.CompletionDayLevel) == 0 {
		return member
	}

	member.Completions = make(map[int]map[int]leaderboard.Completion, len(wire.CompletionDayLevel))
	for dayKey, stars := range wire.CompletionDayLevel {
		day, err := strconv.Atoi(strings.TrimSpace(dayKey))
		if err != nil || day <= 0 {
			continue
		}

		for starKey, completion := range stars {
			star, err := strconv.Atoi(strings.TrimSpace(starKey))
			if err != nil || star < leaderboard.StarOne || star > leaderboard.StarTwo {
				continue
			}

			if member.Completions[day] == nil {
				member.Completions[day] = make(map[int]leaderboard.Completion, 2)
			}
			member.Completions[day][star] = leaderboard.Completion{SolvedAt: completion.GetStarTS}
		}
	}

	return member
}

func displayNameFromWire(name *string) leaderboard.DisplayName {
	if name == nil {
		return leaderboard.DisplayName{}
	}
	return leaderboard.NewDisplayName(strings.TrimSpace(*name))
}
