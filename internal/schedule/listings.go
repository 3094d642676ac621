package schedule

import (
	"time"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
)

// TodayMeetings returns today's non-cancelled meetings sorted by start time.
func TodayMeetings(events []ical.Event, now time.Time, loc *time.Location) []ical.Event {
	local := now.In(loc)
	date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return eventsOn(events, date, loc)
}

// CurrentMeetings returns today's meetings that have not ended yet.
func CurrentMeetings(events []ical.Event, now time.Time, loc *time.Location) []ical.Event {
	var out []ical.Event
	for _, ev := range TodayMeetings(events, now, loc) {
		if ev.End.After(now) {
			out = append(out, ev)
		}
	}
	return out
}
