package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
)

const (
	timeLayout     = "15:04"
	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04"
)

// statusLabels maps canonical event statuses to display text.
var statusLabels = map[ical.Status]string{
	ical.StatusConfirmed:   "confirmed",
	ical.StatusTentative:   "tentative",
	ical.StatusCancelled:   "cancelled",
	ical.StatusNeedsAction: "needs action",
	ical.StatusDeclined:    "declined",
	ical.StatusAccepted:    "accepted",
}

// Render produces the message text for a notification.
func Render(kind Kind, p Payload) string {
	switch kind {
	case KindNew:
		return "New meeting: " + p.Title + "\n" + details(p)
	case KindCancelled:
		return fmt.Sprintf("Meeting cancelled: %s\n%s", p.Title, timeRange(p.Start, p.End))
	case KindRescheduled:
		return fmt.Sprintf("Meeting rescheduled: %s\nWas: %s\nNow: %s",
			p.Title, timeRange(p.OldStart, p.OldEnd), timeRange(p.Start, p.End))
	case KindReminder:
		return fmt.Sprintf("Reminder: %s at %s", p.Title, p.Start.Format(timeLayout))
	case KindMeetingStarted:
		return fmt.Sprintf("Starting now: %s (until %s)", p.Title, p.End.Format(timeLayout))
	case KindDigest:
		return p.Body
	default:
		return p.Title
	}
}

// details renders the optional meeting fields that are present.
func details(p Payload) string {
	lines := []string{timeRange(p.Start, p.End)}
	if p.Location != "" {
		lines = append(lines, "Location: "+p.Location)
	}
	if p.Organizer != "" {
		lines = append(lines, "Organizer: "+p.Organizer)
	}
	if len(p.Attendees) > 0 {
		lines = append(lines, "Attendees: "+strings.Join(p.Attendees, ", "))
	}
	if p.Description != "" {
		lines = append(lines, p.Description)
	}
	return strings.Join(lines, "\n")
}

// timeRange formats a meeting span. Same-day spans repeat the date once.
func timeRange(start, end time.Time) string {
	if start.IsZero() {
		return ""
	}
	if end.IsZero() || end.Equal(start) {
		return start.Format(dateTimeLayout)
	}
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		return fmt.Sprintf("%s %s-%s", start.Format(dateLayout), start.Format(timeLayout), end.Format(timeLayout))
	}
	return start.Format(dateTimeLayout) + " - " + end.Format(dateTimeLayout)
}

// RenderDigest builds the daily digest body from the day's events, sorted by
// the caller.
func RenderDigest(date time.Time, events []ical.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meetings for %s\n", date.Format(dateLayout))
	if len(events) == 0 {
		b.WriteString("No meetings today.")
		return b.String()
	}
	for _, ev := range events {
		fmt.Fprintf(&b, "%s-%s  %s", ev.Start.Format(timeLayout), ev.End.Format(timeLayout), ev.Title)
		if ev.Status != ical.StatusConfirmed {
			fmt.Fprintf(&b, " (%s)", statusLabel(ev.Status))
		}
		if ev.Location != "" {
			fmt.Fprintf(&b, " @ %s", ev.Location)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// MeetingsTable renders events as a markdown table for listings.
func MeetingsTable(events []ical.Event) string {
	var b strings.Builder
	b.WriteString("| Time | Title | Status |\n|---|---|---|\n")
	for _, ev := range events {
		title := strings.ReplaceAll(ev.Title, "|", "\\|")
		fmt.Fprintf(&b, "| %s | %s | %s |\n", timeRange(ev.Start, ev.End), title, statusLabel(ev.Status))
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusLabel(s ical.Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return strings.ToLower(string(s))
}
