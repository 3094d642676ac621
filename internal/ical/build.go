package ical

import (
	"bytes"
	"fmt"
	"time"

	goical "github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// Meeting holds the inputs for building a new calendar object.
type Meeting struct {
	Title       string
	Start       time.Time
	End         time.Time
	Organizer   string
	Attendees   []string
	Description string
	Location    string
}

// BuildMeeting serializes a meeting as a single-event iCalendar object and
// returns the generated UID together with the encoded bytes.
func BuildMeeting(m Meeting) (string, []byte, error) {
	uid := uuid.NewString()
	now := time.Now().UTC()

	ev := goical.NewEvent()
	ev.Props.SetText(goical.PropUID, uid)
	ev.Props.SetText(goical.PropSummary, m.Title)
	ev.Props.SetDateTime(goical.PropDateTimeStart, m.Start)
	ev.Props.SetDateTime(goical.PropDateTimeEnd, m.End)
	ev.Props.SetDateTime(goical.PropDateTimeStamp, now)
	ev.Props.SetDateTime(goical.PropCreated, now)
	ev.Props.SetDateTime(goical.PropLastModified, now)
	ev.Props.SetText(goical.PropStatus, string(StatusConfirmed))
	ev.Props.SetText(goical.PropTransparency, "OPAQUE")
	seq := goical.NewProp(goical.PropSequence)
	seq.Value = "0"
	ev.Props.Set(seq)

	if m.Description != "" {
		ev.Props.SetText(goical.PropDescription, m.Description)
	}
	if m.Location != "" {
		ev.Props.SetText(goical.PropLocation, m.Location)
	}

	if m.Organizer != "" {
		org := goical.NewProp(goical.PropOrganizer)
		org.Value = "mailto:" + m.Organizer
		org.Params.Set(goical.ParamCommonName, m.Organizer)
		ev.Props.Add(org)
	}
	for _, addr := range m.Attendees {
		if addr == "" || addr == m.Organizer {
			continue
		}
		att := goical.NewProp(goical.PropAttendee)
		att.Value = "mailto:" + addr
		att.Params.Set(goical.ParamCommonName, addr)
		att.Params.Set(goical.ParamRole, "REQ-PARTICIPANT")
		ev.Props.Add(att)
	}

	cal := goical.NewCalendar()
	cal.Props.SetText(goical.PropVersion, "2.0")
	cal.Props.SetText(goical.PropProductID, "-//loop-calendar-bot//EN")
	cal.Children = append(cal.Children, ev.Component)

	var buf bytes.Buffer
	if err := goical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", nil, fmt.Errorf("encode calendar object: %w", err)
	}
	return uid, buf.Bytes(), nil
}
