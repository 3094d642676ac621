package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
	"github.com/tomas1pit/loop-calendar-bot/internal/notify"
	"github.com/tomas1pit/loop-calendar-bot/internal/store"
)

// Digest sends each user one schedule summary per calendar date, gated by a
// persisted log row. Delivery is at-least-once: the row is written only
// after a successful send, so a crash between the two can repeat a digest
// but never lose one.
type Digest struct {
	digestLog store.DigestRepository
	notifier  notify.Notifier
	hour      int
	loc       *time.Location
	log       zerolog.Logger
}

// NewDigest wires a digest gate. hour is the local hour of day after which
// the digest becomes due.
func NewDigest(digestLog store.DigestRepository, notifier notify.Notifier, hour int, loc *time.Location, log zerolog.Logger) *Digest {
	return &Digest{digestLog: digestLog, notifier: notifier, hour: hour, loc: loc, log: log}
}

// Run sends today's digest if it is due and has not gone out yet. events is
// the tick's fetched set; only today's non-cancelled meetings appear in the
// summary.
func (d *Digest) Run(ctx context.Context, userID int64, events []ical.Event, now time.Time) error {
	local := now.In(d.loc)
	if local.Hour() < d.hour {
		return nil
	}
	date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.loc)

	sent, err := d.digestLog.Sent(ctx, userID, date)
	if err != nil {
		return fmt.Errorf("check digest log: %w", err)
	}
	if sent {
		return nil
	}

	today := eventsOn(events, date, d.loc)
	body := notify.RenderDigest(date, today)
	err = d.notifier.Notify(ctx, userID, notify.KindDigest, notify.Payload{Body: body})
	if err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	if err := d.digestLog.MarkSent(ctx, userID, date); err != nil {
		return fmt.Errorf("record digest: %w", err)
	}
	d.log.Info().Int64("user_id", userID).Int("meetings", len(today)).Msg("digest sent")
	return nil
}

// eventsOn keeps non-cancelled events starting on the given local date,
// sorted by start time.
func eventsOn(events []ical.Event, date time.Time, loc *time.Location) []ical.Event {
	next := date.AddDate(0, 0, 1)
	var day []ical.Event
	for _, ev := range events {
		start := ev.Start.In(loc)
		if start.Before(date) || !start.Before(next) {
			continue
		}
		if ev.Status == ical.StatusCancelled {
			continue
		}
		day = append(day, ev)
	}
	sort.Slice(day, func(i, j int) bool { return day[i].Start.Before(day[j].Start) })
	return day
}
