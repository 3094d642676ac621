package diff

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
	"github.com/tomas1pit/loop-calendar-bot/internal/notify"
	"github.com/tomas1pit/loop-calendar-bot/internal/store"
)

// Engine applies one fetch result to a user's snapshots and emits change
// notifications.
type Engine struct {
	snapshots store.SnapshotRepository
	notifier  notify.Notifier
	log       zerolog.Logger
}

// NewEngine wires a diff engine.
func NewEngine(snapshots store.SnapshotRepository, notifier notify.Notifier, log zerolog.Logger) *Engine {
	return &Engine{snapshots: snapshots, notifier: notifier, log: log}
}

// Run diffs fetched events against stored snapshots for the window
// [windowStart, windowEnd). Events without a stable identity are ignored.
// Snapshots are upserted after classification whether or not notification
// delivery succeeded, so a delivery failure never replays a change.
// Disappearance from a fetch is read as cancellation only when the fetch is
// trustworthy: an all-failed fetch must not cancel anything.
func (e *Engine) Run(ctx context.Context, userID int64, events []ical.Event, windowStart, windowEnd time.Time, trustworthy bool) error {
	var current []ical.Event
	for _, ev := range events {
		if !ev.Diffable() {
			continue
		}
		if !ev.Start.Before(windowEnd) || ev.Start.Before(windowStart) {
			continue
		}
		current = append(current, ev)
	}
	sort.Slice(current, func(i, j int) bool { return current[i].Start.Before(current[j].Start) })

	seen := make(map[string]bool, len(current))
	for _, ev := range current {
		seen[ev.UID] = true

		prev, err := e.snapshots.GetByUID(ctx, userID, ev.UID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load snapshot %s: %w", ev.UID, err)
		}

		change := Classify(prev, ev)
		e.emit(ctx, userID, change, prev, ev)

		snap := snapshotFromEvent(userID, ev)
		if err := e.snapshots.Upsert(ctx, snap); err != nil {
			e.log.Error().Err(err).Str("uid", ev.UID).Msg("snapshot upsert failed")
		}
	}

	if trustworthy {
		if err := e.cancelDisappeared(ctx, userID, seen, windowStart, windowEnd); err != nil {
			return err
		}
	}
	return nil
}

// emit sends the notification a change calls for. An uncancelled meeting is
// announced as new again.
func (e *Engine) emit(ctx context.Context, userID int64, change Change, prev *store.MeetingSnapshot, ev ical.Event) {
	var kind notify.Kind
	payload := notify.Payload{
		Title:       ev.Title,
		Start:       ev.Start,
		End:         ev.End,
		Attendees:   ev.Attendees,
		Organizer:   ev.Organizer,
		Description: ev.Description,
		Location:    ev.Location,
	}

	switch change {
	case ChangeNew, ChangeUncancelled:
		kind = notify.KindNew
	case ChangeCancelled:
		kind = notify.KindCancelled
	case ChangeRescheduled:
		kind = notify.KindRescheduled
		payload.OldStart = prev.Start
		payload.OldEnd = prev.End
	default:
		return
	}

	if err := e.notifier.Notify(ctx, userID, kind, payload); err != nil {
		e.log.Error().Err(err).Str("uid", ev.UID).Str("kind", string(kind)).Msg("notification delivery failed")
	}
}

// cancelDisappeared tombstones snapshots in the window that the fetch no
// longer reports. Rows are never deleted; cancellation is a status flip.
func (e *Engine) cancelDisappeared(ctx context.Context, userID int64, seen map[string]bool, windowStart, windowEnd time.Time) error {
	snaps, err := e.snapshots.ListWindow(ctx, userID, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("list window snapshots: %w", err)
	}
	for _, snap := range snaps {
		if seen[snap.UID] || snap.Status == string(ical.StatusCancelled) {
			continue
		}
		err := e.notifier.Notify(ctx, userID, notify.KindCancelled, notify.Payload{
			Title: snap.Title,
			Start: snap.Start,
			End:   snap.End,
		})
		if err != nil {
			e.log.Error().Err(err).Str("uid", snap.UID).Msg("cancellation notice failed")
		}
		if err := e.snapshots.MarkCancelled(ctx, userID, snap.UID); err != nil {
			e.log.Error().Err(err).Str("uid", snap.UID).Msg("tombstone failed")
		}
	}
	return nil
}

func snapshotFromEvent(userID int64, ev ical.Event) store.MeetingSnapshot {
	return store.MeetingSnapshot{
		UserID:      userID,
		UID:         ev.UID,
		Title:       ev.Title,
		Start:       ev.Start,
		End:         ev.End,
		Attendees:   ev.Attendees,
		Organizer:   ev.Organizer,
		Description: ev.Description,
		Location:    ev.Location,
		Status:      string(ev.Status),
		ContentHash: ev.ContentHash(),
	}
}
