package caldav

import (
	"fmt"
	"time"
)

const wireTimeFormat = "20060102T150405Z"

// calendarQuery builds the REPORT body requesting VEVENT components whose
// time range intersects [start, end). The window is expressed in UTC basic
// format regardless of the caller's timezone. The server is picky about this
// document; its exact shape must not change.
func calendarQuery(start, end time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8" ?>
<C:calendar-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop>
    <D:getetag/>
    <C:calendar-data/>
  </D:prop>
  <C:filter>
    <C:comp-filter name="VCALENDAR">
      <C:comp-filter name="VEVENT">
        <C:time-range start="%s" end="%s"/>
      </C:comp-filter>
    </C:comp-filter>
  </C:filter>
</C:calendar-query>`,
		start.UTC().Format(wireTimeFormat),
		end.UTC().Format(wireTimeFormat))
}
