package caldav

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	return New(Options{
		BaseURL:       serverURL,
		PrincipalPath: "/principals/",
		Email:         "user@example.com",
		Credential:    "secret",
		Auth:          AuthBasic,
		Location:      loc,
		Logger:        zerolog.Nop(),
	})
}

func TestPrincipalURL(t *testing.T) {
	c := testClient(t, "https://calendar.example.com")
	want := "https://calendar.example.com/principals/example.com/user/"
	if got := c.PrincipalURL(); got != want {
		t.Errorf("PrincipalURL() = %q, want %q", got, want)
	}
}

const twoCalendarListing = `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:response>
    <D:href>/calendars/example.com/user/work/</D:href>
    <D:propstat>
      <D:status>HTTP/1.1 200 OK</D:status>
      <D:prop>
        <D:displayname>Work</D:displayname>
        <D:resourcetype><D:collection/><C:calendar/></D:resourcetype>
      </D:prop>
    </D:propstat>
  </D:response>
  <D:response>
    <D:href>/calendars/example.com/user/main/</D:href>
    <D:propstat>
      <D:status>HTTP/1.1 200 OK</D:status>
      <D:prop>
        <D:displayname>&#1054;&#1089;&#1085;&#1086;&#1074;&#1085;&#1086;&#1081;</D:displayname>
        <D:resourcetype><D:collection/><C:calendar/></D:resourcetype>
      </D:prop>
    </D:propstat>
  </D:response>
  <D:response>
    <D:href>/calendars/example.com/user/</D:href>
    <D:propstat>
      <D:status>HTTP/1.1 200 OK</D:status>
      <D:prop>
        <D:displayname>Home</D:displayname>
        <D:resourcetype><D:collection/></D:resourcetype>
      </D:prop>
    </D:propstat>
  </D:response>
</D:multistatus>`

func TestDiscoverPrefersPrimaryCalendar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PROPFIND" {
			http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write([]byte(twoCalendarListing))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	collections := c.Discover(context.Background())
	if len(collections) != 1 {
		t.Fatalf("expected the primary calendar only, got %+v", collections)
	}
	if collections[0].Href != "/calendars/example.com/user/main/" {
		t.Errorf("href = %q", collections[0].Href)
	}
}

const rootMarkerListing = `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:response>
    <D:href>/calendars/</D:href>
    <D:propstat>
      <D:status>HTTP/1.1 200 OK</D:status>
      <D:prop>
        <D:resourcetype><D:collection/></D:resourcetype>
      </D:prop>
    </D:propstat>
  </D:response>
</D:multistatus>`

func TestDiscoverFollowsCalendarsRootMarker(t *testing.T) {
	var listedRoot bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/principals/example.com/user/":
			w.WriteHeader(http.StatusMultiStatus)
			_, _ = w.Write([]byte(rootMarkerListing))
		case "/calendars/":
			listedRoot = true
			w.WriteHeader(http.StatusMultiStatus)
			_, _ = w.Write([]byte(twoCalendarListing))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	collections := c.Discover(context.Background())
	if !listedRoot {
		t.Fatal("expected a second listing at the advertised calendars root")
	}
	if len(collections) != 1 || collections[0].Href != "/calendars/example.com/user/main/" {
		t.Errorf("collections = %+v", collections)
	}
}

func TestDiscoverProbesCandidates(t *testing.T) {
	const answering = "/calendars/example.com/user/events/"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only one conventional path exists, and only to an existence
		// check, not a listing.
		if r.URL.Path == answering && r.Header.Get("Depth") == "0" {
			w.WriteHeader(http.StatusMultiStatus)
			return
		}
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	collections := c.Discover(context.Background())
	if len(collections) != 1 {
		t.Fatalf("expected the one answering candidate, got %+v", collections)
	}
	if collections[0].Href != answering {
		t.Errorf("candidate = %q, want %q", collections[0].Href, answering)
	}
}

func TestDiscoverEmptyWhenNothingAnswers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if collections := c.Discover(context.Background()); len(collections) != 0 {
		t.Fatalf("expected no collections from a server that rejects every probe, got %+v", collections)
	}
}

func TestPing(t *testing.T) {
	var gotDepth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDepth = r.Header.Get("Depth")
		w.WriteHeader(http.StatusMultiStatus)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if !c.Ping(context.Background()) {
		t.Error("expected ping to succeed")
	}
	if gotDepth != "0" {
		t.Errorf("ping depth = %q, want 0", gotDepth)
	}

	srv.Close()
	if c.Ping(context.Background()) {
		t.Error("expected ping to fail against a dead server")
	}
}
