package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/riskibarqy/advent-board/internal/platform/timefmt"
	"github.com/riskibarqy/advent-board/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

var reportSeparator = strings.Repeat("#", 70)

// Renderer prints reports as plain text. Each report is assembled in a
// pooled buffer and written in one call so concurrent loggers on stderr
// cannot interleave with a half-written report.
type Renderer struct {
	out io.Writer
	loc *time.Location
	now func() time.Time
}

func NewRenderer(out io.Writer, loc *time.Location) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	if loc == nil {
		loc = time.Local
	}

	return &Renderer{
		out: out,
		loc: loc,
		now: time.Now,
	}
}

func (r *Renderer) Render(report usecase.Report) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "\n%s\n", reportSeparator)
	fmt.Fprintf(buf, "Private leaderboard %d, event %d\n", report.LeaderboardID, report.EventYear)

	events := report.Events
	if report.FilterToday {
		events = r.eventsOn(r.now(), events)
	}

	currentDay := 0
	for _, event := range events {
		ts := event.Timestamp.In(r.loc)
		if ts.Day() != currentDay {
			currentDay = ts.Day()
			fmt.Fprintf(buf, "\n%s\n", ts.Format("January _2"))
		}

		fmt.Fprintf(buf, "  %s %-25s\t%s [%d] (%s)\n",
			ts.Format("15:04:05"),
			event.MemberLabel,
			event.Star,
			event.Score,
			timefmt.Elapsed(event.Elapsed),
		)
	}

	fmt.Fprintf(buf, "\nLeaderboard:\n")
	for _, row := range report.Standings {
		fmt.Fprintf(buf, "  %-25s %d\n", row.Label, row.Score)
	}

	if _, err := r.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// eventsOn keeps events whose local calendar date matches the given
// moment. The standings passed alongside stay complete, only the event
// listing narrows.
func (r *Renderer) eventsOn(moment time.Time, events []usecase.ScoredEvent) []usecase.ScoredEvent {
	year, month, day := moment.In(r.loc).Date()

	out := make([]usecase.ScoredEvent, 0, len(events))
	for _, event := range events {
		eventYear, eventMonth, eventDay := event.Timestamp.In(r.loc).Date()
		if eventYear == year && eventMonth == month && eventDay == day {
			out = append(out, event)
		}
	}

	return out
}
