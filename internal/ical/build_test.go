package ical

import (
	"strings"
	"testing"
	"time"
)

func TestBuildMeeting(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	uid, payload, err := BuildMeeting(Meeting{
		Title:     "Team sync",
		Start:     start,
		End:       start.Add(time.Hour),
		Organizer: "carol@example.com",
		Attendees: []string{"alice@example.com", "carol@example.com", ""},
		Location:  "Room 4",
	})
	if err != nil {
		t.Fatalf("BuildMeeting failed: %v", err)
	}
	if uid == "" {
		t.Fatal("expected a generated uid")
	}

	text := string(payload)
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"SUMMARY:Team sync",
		"UID:" + uid,
		"ORGANIZER;CN=carol@example.com:mailto:carol@example.com",
		"mailto:alice@example.com",
		"LOCATION:Room 4",
		"STATUS:CONFIRMED",
		"END:VCALENDAR",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("encoded object missing %q:\n%s", want, text)
		}
	}

	// The organizer must not also appear as an attendee.
	if strings.Count(text, "mailto:carol@example.com") != 1 {
		t.Errorf("organizer duplicated as attendee:\n%s", text)
	}

	// The encoded object must round-trip through our own parser.
	events, err := ParseCalendarData(text, time.UTC)
	if err != nil {
		t.Fatalf("round-trip parse failed: %v", err)
	}
	if len(events) != 1 || events[0].UID != uid {
		t.Fatalf("round-trip mismatch: %+v", events)
	}
}
