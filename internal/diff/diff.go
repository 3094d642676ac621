// Package diff compares fetched events against stored snapshots and decides
// which notifications a sync cycle owes the user.
package diff

import (
	"time"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
	"github.com/tomas1pit/loop-calendar-bot/internal/store"
)

// Change classifies one event against its stored snapshot. The
// classification is total: every (snapshot, event) pair maps to exactly one
// change.
type Change string

const (
	ChangeNew         Change = "NEW"
	ChangeUncancelled Change = "UNCANCELLED"
	ChangeCancelled   Change = "CANCELLED"
	ChangeRescheduled Change = "RESCHEDULED"
	ChangeUnchanged   Change = "UNCHANGED"
)

// Classify maps an event and its prior snapshot to a change. prev is nil
// when the event has never been seen. Reschedule comparison truncates to
// whole minutes so that sub-minute server jitter does not resurface old
// meetings.
func Classify(prev *store.MeetingSnapshot, ev ical.Event) Change {
	if prev == nil {
		// A meeting first sighted in cancelled state is noise, not news.
		if ev.Status == ical.StatusCancelled {
			return ChangeUnchanged
		}
		return ChangeNew
	}

	prevCancelled := prev.Status == string(ical.StatusCancelled)
	nowCancelled := ev.Status == ical.StatusCancelled

	switch {
	case prevCancelled && !nowCancelled:
		return ChangeUncancelled
	case !prevCancelled && nowCancelled:
		return ChangeCancelled
	case prevCancelled && nowCancelled:
		return ChangeUnchanged
	}

	if !sameMinute(prev.Start, ev.Start) || !sameMinute(prev.End, ev.End) {
		return ChangeRescheduled
	}
	return ChangeUnchanged
}

func sameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}
