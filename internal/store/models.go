package store

import "time"

// User is one monitored calendar account.
type User struct {
	ID         int64
	Email      string
	Credential string
	CreatedAt  time.Time
}

// MeetingSnapshot is the last known state of one event, keyed by
// (user, UID). Cancellation is a status flip; rows are never deleted by the
// sync cycle.
type MeetingSnapshot struct {
	UserID      int64
	UID         string
	Title       string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Organizer   string
	Description string
	Location    string
	Status      string
	ContentHash string
	FirstSeenAt time.Time
	UpdatedAt   time.Time
}

// DigestLogEntry records that a user's daily digest went out for a date.
type DigestLogEntry struct {
	UserID     int64
	DigestDate time.Time
	SentAt     time.Time
}
