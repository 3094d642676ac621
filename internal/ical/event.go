// Package ical turns raw CalDAV payloads into canonical calendar events.
package ical

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Status is an event participation/lifecycle status as carried on the wire.
type Status string

const (
	StatusConfirmed   Status = "CONFIRMED"
	StatusTentative   Status = "TENTATIVE"
	StatusCancelled   Status = "CANCELLED"
	StatusNeedsAction Status = "NEEDS-ACTION"
	StatusDeclined    Status = "DECLINED"
	StatusAccepted    Status = "ACCEPTED"
)

// ParseStatus canonicalizes a raw STATUS value. Empty or unknown values
// default to CONFIRMED, matching what servers omit for plain events.
func ParseStatus(raw string) Status {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusConfirmed, StatusTentative, StatusCancelled,
		StatusNeedsAction, StatusDeclined, StatusAccepted:
		return s
	case "":
		return StatusConfirmed
	}
	return s
}

// Event is the canonical in-memory event record.
type Event struct {
	UID         string
	Title       string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Organizer   string
	Description string
	Location    string
	Status      Status

	// Alarms holds absolute reminder trigger times, earliest first.
	Alarms []time.Time

	// Synthetic marks events whose UID was generated locally because the
	// payload carried none. Such events may render in listings but are
	// excluded from cache and diff operations.
	Synthetic bool
}

// Diffable reports whether the event has a stable identity usable for
// snapshot diffing.
func (e *Event) Diffable() bool {
	return e.UID != "" && !e.Synthetic
}

// ContentHash returns a hex digest over the normalized field set. It is a
// lightweight equality hint stored alongside the snapshot; diffing itself
// compares fields, not hashes.
func (e *Event) ContentHash() string {
	var b strings.Builder
	b.WriteString(e.UID)
	b.WriteByte(0)
	b.WriteString(e.Title)
	b.WriteByte(0)
	b.WriteString(e.Start.UTC().Format(time.RFC3339))
	b.WriteByte(0)
	b.WriteString(e.End.UTC().Format(time.RFC3339))
	b.WriteByte(0)
	b.WriteString(strings.Join(e.Attendees, ","))
	b.WriteByte(0)
	b.WriteString(e.Organizer)
	b.WriteByte(0)
	b.WriteString(e.Description)
	b.WriteByte(0)
	b.WriteString(e.Location)
	b.WriteByte(0)
	b.WriteString(string(e.Status))
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum)
}
