// Package caldav implements calendar discovery and the event fetch engine
// against a WebDAV-family calendar server.
package caldav

import (
	"encoding/xml"
	"strings"
)

// Client-side models for DAV multistatus responses. Field tags are kept
// permissive: local names are unique within these documents, and servers
// disagree about prefixes.

type multistatus struct {
	XMLName   xml.Name     `xml:"DAV: multistatus"`
	Responses []msResponse `xml:"response"`
}

type msResponse struct {
	Href      string       `xml:"href"`
	Propstats []msPropstat `xml:"propstat"`
	Status    string       `xml:"status"`
}

type msPropstat struct {
	Status string `xml:"status"`
	Prop   msProp `xml:"prop"`
}

type msProp struct {
	DisplayName  string         `xml:"displayname"`
	ResourceType msResourceType `xml:"resourcetype"`
	GetETag      string         `xml:"getetag"`
	CalendarData string         `xml:"urn:ietf:params:xml:ns:caldav calendar-data"`
}

type msResourceType struct {
	Collection *struct{} `xml:"DAV: collection"`
	Calendar   *struct{} `xml:"urn:ietf:params:xml:ns:caldav calendar"`
	Principal  *struct{} `xml:"DAV: principal"`
}

func (r msResponse) isCalendar() bool {
	for _, ps := range r.Propstats {
		if ps.Prop.ResourceType.Calendar != nil {
			return true
		}
	}
	return false
}

func (r msResponse) displayName() string {
	for _, ps := range r.Propstats {
		if name := strings.TrimSpace(ps.Prop.DisplayName); name != "" {
			return name
		}
	}
	return ""
}

// calendarDataBlocks pulls every non-empty calendar-data payload out of a
// parsed multistatus.
func (m *multistatus) calendarDataBlocks() []string {
	var blocks []string
	for _, resp := range m.Responses {
		for _, ps := range resp.Propstats {
			if data := strings.TrimSpace(ps.Prop.CalendarData); data != "" {
				blocks = append(blocks, data)
			}
		}
	}
	return blocks
}

func parseMultistatus(payload []byte) (*multistatus, error) {
	var ms multistatus
	if err := xml.Unmarshal(payload, &ms); err != nil {
		return nil, err
	}
	return &ms, nil
}
