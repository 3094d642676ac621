// Package schedule decides which time-based notifications fall due within a
// polling tick.
package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
	"github.com/tomas1pit/loop-calendar-bot/internal/notify"
)

// Reminders evaluates alarm and start-of-meeting notices. Each tick owns the
// half-open slot [now, now+interval): a trigger falling inside the slot fires
// in this tick and in no other, so notices are sent exactly once as long as
// ticks do not overlap.
type Reminders struct {
	notifier notify.Notifier
	lead     time.Duration
	interval time.Duration
	log      zerolog.Logger
}

// NewReminders wires a reminder evaluator. lead is the fallback offset used
// for events that carry no alarms.
func NewReminders(notifier notify.Notifier, lead, interval time.Duration, log zerolog.Logger) *Reminders {
	return &Reminders{notifier: notifier, lead: lead, interval: interval, log: log}
}

// Evaluate walks the fetched events and emits the notices due in this tick.
// Cancelled events get nothing. The notice chain per event is strict: alarms
// when the event has any (at most one reminder per tick no matter how many
// alarms land in the slot), otherwise the fixed lead when one is configured,
// otherwise a start-of-meeting notice. A zero lead disables the fallback
// without silencing the start notice.
func (r *Reminders) Evaluate(ctx context.Context, userID int64, events []ical.Event, now time.Time) {
	slotEnd := now.Add(r.interval)

	for _, ev := range events {
		if ev.Status == ical.StatusCancelled {
			continue
		}

		if len(ev.Alarms) > 0 {
			for _, alarm := range ev.Alarms {
				if inSlot(alarm, now, slotEnd) {
					r.send(ctx, userID, notify.KindReminder, ev)
					r.log.Debug().Str("uid", ev.UID).Time("trigger", alarm).Msg("alarm reminder fired")
					break
				}
			}
			continue
		}

		if r.lead > 0 && inSlot(ev.Start.Add(-r.lead), now, slotEnd) {
			r.send(ctx, userID, notify.KindReminder, ev)
			r.log.Debug().Str("uid", ev.UID).Msg("lead reminder fired")
			continue
		}

		if inSlot(ev.Start, now, slotEnd) {
			r.send(ctx, userID, notify.KindMeetingStarted, ev)
		}
	}
}

func (r *Reminders) send(ctx context.Context, userID int64, kind notify.Kind, ev ical.Event) {
	err := r.notifier.Notify(ctx, userID, kind, notify.Payload{
		Title:       ev.Title,
		Start:       ev.Start,
		End:         ev.End,
		Location:    ev.Location,
		Description: ev.Description,
	})
	if err != nil {
		r.log.Error().Err(err).Str("uid", ev.UID).Str("kind", string(kind)).Msg("notice delivery failed")
	}
}

func inSlot(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
