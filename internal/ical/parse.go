package ical

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/dylanmei/iso8601"
	goical "github.com/emersion/go-ical"
)

// datetimeFormats are tried in order when a property's own metadata is not
// enough to parse its value. Servers are inconsistent about basic vs
// extended forms.
var datetimeFormats = []string{
	"20060102T150405Z",
	"20060102T150405",
	"20060102T1504",
	"20060102",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseCalendarData parses one calendar-data block into canonical events.
// The block is unfolded and scrubbed before decoding. Naive timestamps are
// interpreted in loc; aware timestamps are converted to loc.
func ParseCalendarData(raw string, loc *time.Location) ([]Event, error) {
	cleaned := ScrubControl(Unfold(strings.TrimSpace(raw)))
	if cleaned == "" {
		return nil, nil
	}
	// go-ical expects CRLF-delimited content lines.
	cleaned = strings.ReplaceAll(cleaned, "\n", "\r\n")

	dec := goical.NewDecoder(strings.NewReader(cleaned))
	var events []Event
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(events) > 0 {
				break
			}
			return nil, err
		}
		for _, child := range cal.Component.Children {
			if child.Name != goical.CompEvent {
				continue
			}
			ev, err := parseEventComponent(child, loc)
			if err != nil {
				continue
			}
			events = append(events, Normalize(ev, loc))
		}
	}
	return events, nil
}

// EventsFromCalendar converts an already-decoded calendar object into
// canonical events. Components without a usable start time are skipped.
func EventsFromCalendar(cal *goical.Calendar, loc *time.Location) []Event {
	var events []Event
	for _, child := range cal.Component.Children {
		if child.Name != goical.CompEvent {
			continue
		}
		ev, err := parseEventComponent(child, loc)
		if err != nil {
			continue
		}
		events = append(events, Normalize(ev, loc))
	}
	return events
}

var errNoStart = errors.New("event has no usable DTSTART")

func parseEventComponent(comp *goical.Component, loc *time.Location) (Event, error) {
	ev := Event{Status: StatusConfirmed}

	if p := comp.Props.Get(goical.PropUID); p != nil {
		ev.UID = strings.TrimSpace(p.Value)
	}
	if p := comp.Props.Get(goical.PropSummary); p != nil {
		ev.Title = p.Value
	}
	if p := comp.Props.Get(goical.PropDescription); p != nil {
		ev.Description = p.Value
	}
	if p := comp.Props.Get(goical.PropLocation); p != nil {
		ev.Location = p.Value
	}
	if p := comp.Props.Get(goical.PropStatus); p != nil {
		ev.Status = ParseStatus(p.Value)
	}

	start, err := propDateTime(comp.Props.Get(goical.PropDateTimeStart), loc)
	if err != nil {
		return Event{}, errNoStart
	}
	ev.Start = start
	if end, err := propDateTime(comp.Props.Get(goical.PropDateTimeEnd), loc); err == nil {
		ev.End = end
	} else {
		ev.End = start
	}

	for _, p := range comp.Props.Values(goical.PropAttendee) {
		if addr := CleanAddress(p.Value); addr != "" {
			ev.Attendees = append(ev.Attendees, addr)
		}
	}
	if p := comp.Props.Get(goical.PropOrganizer); p != nil {
		ev.Organizer = CleanAddress(p.Value)
	}

	for _, child := range comp.Children {
		if child.Name != goical.CompAlarm {
			continue
		}
		p := child.Props.Get(goical.PropTrigger)
		if p == nil {
			continue
		}
		if trigger, err := resolveTrigger(p.Value, ev.Start, loc); err == nil {
			ev.Alarms = append(ev.Alarms, trigger)
		}
	}

	return ev, nil
}

// propDateTime extracts a timestamp from a DTSTART/DTEND property. The
// library handles TZID and VALUE=DATE metadata; raw-value parsing covers the
// malformed variants seen in the wild.
func propDateTime(p *goical.Prop, loc *time.Location) (time.Time, error) {
	if p == nil {
		return time.Time{}, errNoStart
	}
	if t, err := p.DateTime(loc); err == nil {
		return t.In(loc), nil
	}
	return parseDateTimeValue(p.Value, loc)
}

func parseDateTimeValue(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range datetimeFormats {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t.In(loc), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// resolveTrigger computes an alarm's absolute trigger time. Relative
// triggers (ISO-8601 durations, optionally signed) offset the event start;
// absolute triggers are parsed and converted to loc.
func resolveTrigger(value string, start time.Time, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty trigger")
	}
	if isDurationTrigger(value) {
		sign := time.Duration(1)
		v := value
		if strings.HasPrefix(v, "-") {
			sign = -1
			v = v[1:]
		} else if strings.HasPrefix(v, "+") {
			v = v[1:]
		}
		d, err := iso8601.ParseDuration(v)
		if err != nil {
			return time.Time{}, err
		}
		return start.Add(sign * d), nil
	}
	return parseDateTimeValue(value, loc)
}

func isDurationTrigger(value string) bool {
	return strings.HasPrefix(value, "P") ||
		strings.HasPrefix(value, "-P") ||
		strings.HasPrefix(value, "+P")
}
