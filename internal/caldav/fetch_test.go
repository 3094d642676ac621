package caldav

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
)

const oneCalendarListing = `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:response>
    <D:href>/calendars/example.com/user/main/</D:href>
    <D:propstat>
      <D:status>HTTP/1.1 200 OK</D:status>
      <D:prop>
        <D:displayname>main</D:displayname>
        <D:resourcetype><D:collection/><C:calendar/></D:resourcetype>
      </D:prop>
    </D:propstat>
  </D:response>
</D:multistatus>`

const reportWithEvent = `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:response>
    <D:href>/calendars/example.com/user/main/ev-1.ics</D:href>
    <D:propstat>
      <D:status>HTTP/1.1 200 OK</D:status>
      <D:prop>
        <D:getetag>"abc"</D:getetag>
        <C:calendar-data>BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:ev-1
SUMMARY:Planning
DTSTART:20260115T100000Z
DTEND:20260115T110000Z
END:VEVENT
END:VCALENDAR</C:calendar-data>
      </D:prop>
    </D:propstat>
  </D:response>
</D:multistatus>`

// Valid enough to carry a VEVENT block, broken enough that no XML parser
// accepts it.
const mangledReport = `<?xml version="1.0"?><D:multistatus><broken
BEGIN:VEVENT
UID:ev-2
SUMMARY:Recovered
DTSTART:20260115T100000Z
DTEND:20260115T103000Z
END:VEVENT
<<<`

func fetchWindow(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 2)
}

func TestFetchEventsPrimary(t *testing.T) {
	var reports int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "PROPFIND":
			w.WriteHeader(http.StatusMultiStatus)
			_, _ = w.Write([]byte(oneCalendarListing))
		case "REPORT":
			reports++
			w.WriteHeader(http.StatusMultiStatus)
			_, _ = w.Write([]byte(reportWithEvent))
		default:
			http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	start, end := fetchWindow(t)
	result := c.FetchEvents(context.Background(), start, end)

	if !result.Trustworthy {
		t.Error("successful query should be trustworthy")
	}
	if len(result.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result.Events))
	}
	if result.Events[0].UID != "ev-1" || result.Events[0].Title != "Planning" {
		t.Errorf("unexpected event: %+v", result.Events[0])
	}
	if reports != 1 {
		t.Errorf("primary success should not trigger fallbacks, got %d reports", reports)
	}
}

func TestFetchEventsAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	start, end := fetchWindow(t)
	result := c.FetchEvents(context.Background(), start, end)

	if result.Trustworthy {
		t.Error("fetch with zero successful queries must not be trustworthy")
	}
	if len(result.Events) != 0 {
		t.Errorf("expected no events, got %d", len(result.Events))
	}
	// Discovery yields no collections here, so any recorded statuses come
	// from the alternate client's requests.
	if len(result.Statuses) == 0 {
		t.Error("statuses of failed requests should be recorded")
	}
	for _, status := range result.Statuses {
		if status != http.StatusInternalServerError {
			t.Errorf("unexpected status %d", status)
		}
	}
}

func TestFetchEventsTextualRecovery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "PROPFIND":
			w.WriteHeader(http.StatusMultiStatus)
			_, _ = w.Write([]byte(oneCalendarListing))
		case "REPORT":
			w.WriteHeader(http.StatusMultiStatus)
			_, _ = w.Write([]byte(mangledReport))
		default:
			http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	start, end := fetchWindow(t)
	result := c.FetchEvents(context.Background(), start, end)

	if !result.Trustworthy {
		t.Error("queries succeeded at the HTTP level, fetch should be trustworthy")
	}
	if len(result.Events) != 1 {
		t.Fatalf("expected 1 recovered event, got %d", len(result.Events))
	}
	if result.Events[0].UID != "ev-2" || result.Events[0].Title != "Recovered" {
		t.Errorf("unexpected event: %+v", result.Events[0])
	}
}

func TestFilterWindow(t *testing.T) {
	start, end := fetchWindow(t)
	eventAt := func(uid string, at time.Time) ical.Event {
		return ical.Event{UID: uid, Start: at, End: at.Add(30 * time.Minute)}
	}
	inside := eventAt("inside", start.Add(2*time.Hour))
	before := eventAt("before", start.Add(-3*time.Hour))
	after := eventAt("after", end.Add(time.Hour))

	kept := filterWindow([]ical.Event{inside, before, after}, start, end)
	if len(kept) != 1 || kept[0].UID != "inside" {
		t.Fatalf("expected only the in-window event, got %+v", kept)
	}
}

func TestDedupeByUID(t *testing.T) {
	a := ical.Event{UID: "a"}
	b := ical.Event{UID: "b"}
	out := dedupeByUID([]ical.Event{a, b, a})
	if len(out) != 2 {
		t.Fatalf("expected 2 events after dedupe, got %d", len(out))
	}
}
