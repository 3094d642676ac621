package ical

import (
	"sort"
	"strings"
	"time"
)

// DefaultTitle is used when an event carries no summary.
const DefaultTitle = "Untitled"

// CleanAddress strips the mailto: prefix from a calendar address, collapses
// embedded whitespace and newlines, and returns the first remaining token.
// Some servers fold attendee lines badly enough that the address arrives
// with junk appended.
func CleanAddress(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 7 && strings.EqualFold(s[:7], "mailto:") {
		s = s[7:]
	}
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Normalize returns the canonical form of an event: all timestamps converted
// to loc, addresses cleaned, status canonicalized, alarms sorted. It is
// idempotent: normalizing an already-normalized event changes nothing.
func Normalize(e Event, loc *time.Location) Event {
	out := e

	out.Start = e.Start.In(loc)
	out.End = e.End.In(loc)
	if out.End.Before(out.Start) {
		out.End = out.Start
	}

	out.Title = strings.TrimSpace(e.Title)
	if out.Title == "" {
		out.Title = DefaultTitle
	}

	out.Attendees = nil
	for _, a := range e.Attendees {
		if cleaned := CleanAddress(a); cleaned != "" {
			out.Attendees = append(out.Attendees, cleaned)
		}
	}
	out.Organizer = CleanAddress(e.Organizer)
	out.Status = ParseStatus(string(e.Status))

	out.Alarms = nil
	for _, a := range e.Alarms {
		out.Alarms = append(out.Alarms, a.In(loc))
	}
	sort.Slice(out.Alarms, func(i, j int) bool { return out.Alarms[i].Before(out.Alarms[j]) })

	return out
}
