package caldav

import (
	"testing"
	"time"
)

func TestCalendarQueryExactBytes(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	// Local times must land on the wire as UTC basic format.
	start := time.Date(2026, 1, 15, 3, 0, 0, 0, loc)
	end := time.Date(2026, 1, 17, 3, 0, 0, 0, loc)

	want := `<?xml version="1.0" encoding="utf-8" ?>
<C:calendar-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop>
    <D:getetag/>
    <C:calendar-data/>
  </D:prop>
  <C:filter>
    <C:comp-filter name="VCALENDAR">
      <C:comp-filter name="VEVENT">
        <C:time-range start="20260115T000000Z" end="20260117T000000Z"/>
      </C:comp-filter>
    </C:comp-filter>
  </C:filter>
</C:calendar-query>`

	got := calendarQuery(start, end)
	if got != want {
		t.Fatalf("query body mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
