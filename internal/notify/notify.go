// Package notify renders and delivers user-facing notifications about
// calendar changes.
package notify

import (
	"context"
	"time"
)

// Kind identifies the notification variant.
type Kind string

const (
	KindNew            Kind = "NEW"
	KindCancelled      Kind = "CANCELLED"
	KindRescheduled    Kind = "RESCHEDULED"
	KindReminder       Kind = "REMINDER"
	KindMeetingStarted Kind = "MEETING_STARTED"
	KindDigest         Kind = "DIGEST"
)

// Payload carries the data a notification is rendered from. OldStart and
// OldEnd are set only for reschedules. Body, when set, is the pre-rendered
// message text (digests).
type Payload struct {
	Title       string
	Start       time.Time
	End         time.Time
	OldStart    time.Time
	OldEnd      time.Time
	Attendees   []string
	Organizer   string
	Description string
	Location    string
	Body        string
}

// Notifier delivers one notification to one user. Delivery failures must not
// stop the sync cycle; callers log and continue.
type Notifier interface {
	Notify(ctx context.Context, userID int64, kind Kind, payload Payload) error
}
