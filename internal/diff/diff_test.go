package diff

import (
	"testing"
	"time"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
	"github.com/tomas1pit/loop-calendar-bot/internal/store"
)

func TestClassify(t *testing.T) {
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	snap := func(start, end time.Time, status string) *store.MeetingSnapshot {
		return &store.MeetingSnapshot{UID: "ev", Start: start, End: end, Status: status}
	}
	event := func(start, end time.Time, status ical.Status) ical.Event {
		return ical.Event{UID: "ev", Start: start, End: end, Status: status}
	}

	cases := []struct {
		name string
		prev *store.MeetingSnapshot
		ev   ical.Event
		want Change
	}{
		{
			name: "never seen",
			prev: nil,
			ev:   event(base, base.Add(time.Hour), ical.StatusConfirmed),
			want: ChangeNew,
		},
		{
			name: "first sighting already cancelled is noise",
			prev: nil,
			ev:   event(base, base.Add(time.Hour), ical.StatusCancelled),
			want: ChangeUnchanged,
		},
		{
			name: "identical",
			prev: snap(base, base.Add(time.Hour), "CONFIRMED"),
			ev:   event(base, base.Add(time.Hour), ical.StatusConfirmed),
			want: ChangeUnchanged,
		},
		{
			name: "sub-minute jitter is unchanged",
			prev: snap(base, base.Add(time.Hour), "CONFIRMED"),
			ev:   event(base.Add(30*time.Second), base.Add(time.Hour+30*time.Second), ical.StatusConfirmed),
			want: ChangeUnchanged,
		},
		{
			name: "61 second shift is a reschedule",
			prev: snap(base, base.Add(time.Hour), "CONFIRMED"),
			ev:   event(base.Add(61*time.Second), base.Add(time.Hour+61*time.Second), ical.StatusConfirmed),
			want: ChangeRescheduled,
		},
		{
			name: "end moved alone is a reschedule",
			prev: snap(base, base.Add(time.Hour), "CONFIRMED"),
			ev:   event(base, base.Add(2*time.Hour), ical.StatusConfirmed),
			want: ChangeRescheduled,
		},
		{
			name: "cancelled",
			prev: snap(base, base.Add(time.Hour), "CONFIRMED"),
			ev:   event(base, base.Add(time.Hour), ical.StatusCancelled),
			want: ChangeCancelled,
		},
		{
			name: "uncancelled",
			prev: snap(base, base.Add(time.Hour), "CANCELLED"),
			ev:   event(base, base.Add(time.Hour), ical.StatusConfirmed),
			want: ChangeUncancelled,
		},
		{
			name: "stays cancelled even if moved",
			prev: snap(base, base.Add(time.Hour), "CANCELLED"),
			ev:   event(base.Add(time.Hour), base.Add(2*time.Hour), ical.StatusCancelled),
			want: ChangeUnchanged,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.prev, tc.ev); got != tc.want {
				t.Errorf("Classify() = %s, want %s", got, tc.want)
			}
		})
	}
}
