package timefmt

import (
	"fmt"
	"time"
)

// Elapsed renders a duration the way puzzle solve times are usually read:
// "1d 1:03:09" once a full day passed, "1:00:05" once a full hour passed
// and "03:09" below that. Sub-second precision is truncated.
func Elapsed(d time.Duration) string {
	total := int64(d / time.Second)
	seconds := total % 60
	minutes := (total / 60) % 60
	hours := total / 3600

	switch {
	case total >= 24*3600:
		return fmt.Sprintf("%dd %d:%02d:%02d", total/(24*3600), hours%24, minutes, seconds)
	case total >= 3600:
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%02d:%02d", minutes, seconds)
	}
}
