package ical

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Textual extraction is the last parsing stage: it runs only when the
// structured parser rejected the payload outright, and recovers what it can
// from the event-block markers with plain pattern matching. Records may be
// partial.

var (
	veventBlockRe = regexp.MustCompile(`(?s)BEGIN:VEVENT(.*?)END:VEVENT`)
	valarmBlockRe = regexp.MustCompile(`(?s)BEGIN:VALARM(.*?)END:VALARM`)
	attendeeRe    = regexp.MustCompile(`(?mi)^ATTENDEE[^:]*:(?:mailto:)?(.+)$`)
	organizerRe   = regexp.MustCompile(`(?mi)^ORGANIZER[^:]*:(?:mailto:)?(.+)$`)
	triggerRe     = regexp.MustCompile(`(?m)^TRIGGER[^:]*:(.+)$`)
)

// ExtractEvents scans a raw payload for VEVENT blocks and recovers events
// with best-effort field parsing. Events that lack a UID get a synthetic
// placeholder scoped to source (the fallback path that produced them) and
// are marked Synthetic.
func ExtractEvents(raw string, loc *time.Location, source string) []Event {
	cleaned := ScrubControl(Unfold(raw))
	var events []Event
	for _, match := range veventBlockRe.FindAllStringSubmatch(cleaned, -1) {
		block := match[1]

		ev := Event{
			Title:       textField(block, "SUMMARY"),
			Description: textField(block, "DESCRIPTION"),
			Location:    textField(block, "LOCATION"),
			Status:      ParseStatus(textField(block, "STATUS")),
		}

		ev.UID = textField(block, "UID")
		if ev.UID == "" {
			ev.UID = fmt.Sprintf("%s-%s", source, uuid.NewString())
			ev.Synthetic = true
		}

		start, okStart := datetimeField(block, "DTSTART", loc)
		end, okEnd := datetimeField(block, "DTEND", loc)
		if !okStart {
			continue
		}
		if !okEnd {
			end = start
		}
		ev.Start = start
		ev.End = end

		for _, am := range attendeeRe.FindAllStringSubmatch(block, -1) {
			if addr := CleanAddress(am[1]); addr != "" {
				ev.Attendees = append(ev.Attendees, addr)
			}
		}
		if om := organizerRe.FindStringSubmatch(block); om != nil {
			ev.Organizer = CleanAddress(om[1])
		}

		for _, vm := range valarmBlockRe.FindAllStringSubmatch(block, -1) {
			tm := triggerRe.FindStringSubmatch(vm[1])
			if tm == nil {
				continue
			}
			if trigger, err := resolveTrigger(strings.TrimSpace(tm[1]), start, loc); err == nil {
				ev.Alarms = append(ev.Alarms, trigger)
			}
		}

		events = append(events, Normalize(ev, loc))
	}
	return events
}

// textField returns the value of a NAME:value content line, ignoring any
// property parameters between the name and the colon.
func textField(block, name string) string {
	re := regexp.MustCompile(`(?m)^` + name + `(?:;[^:\n]*)?:(.+)$`)
	if m := re.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// datetimeField parses a DTSTART/DTEND line, honoring an inline TZID
// parameter when one is present and loadable.
func datetimeField(block, name string, loc *time.Location) (time.Time, bool) {
	re := regexp.MustCompile(`(?m)^` + name + `(?:;TZID=([^:;\n]+))?(?:;[^:\n]*)?:(.+)$`)
	m := re.FindStringSubmatch(block)
	if m == nil {
		return time.Time{}, false
	}
	parseLoc := loc
	if m[1] != "" {
		if tz, err := time.LoadLocation(strings.TrimSpace(m[1])); err == nil {
			parseLoc = tz
		}
	}
	t, err := parseDateTimeValue(m[2], parseLoc)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}
