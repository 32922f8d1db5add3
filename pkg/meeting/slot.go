// Package meeting computes proposed meeting slots for concerns and assembles
// calendar event proposals. Slots always land on a weekday; there is no
// conflict detection against existing events.
package meeting

import (
	"time"

	"github.com/bikeshedbot/bikeshed/pkg/random"
)

// DefaultHours is the preferred-hour set used when none is configured.
var DefaultHours = []int{10, 14, 15}

// FindSlot returns the next qualifying meeting start after now: tomorrow,
// pushed past the weekend if needed, at a randomly chosen preferred hour with
// minutes and seconds zeroed. The location of now is preserved.
func FindSlot(now time.Time, preferredHours []int, src random.Source) time.Time {
	day := now.AddDate(0, 0, 1)
	switch day.Weekday() {
	case time.Sunday:
		day = day.AddDate(0, 0, 1)
	case time.Saturday:
		day = day.AddDate(0, 0, 2)
	}

	hours := preferredHours
	if len(hours) == 0 {
		hours = DefaultHours
	}
	hour := random.Pick(src, hours)

	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}
