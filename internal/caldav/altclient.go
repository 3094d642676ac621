package caldav

import (
	"context"
	"net/http"
	"time"

	"github.com/emersion/go-webdav"
	webcaldav "github.com/emersion/go-webdav/caldav"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
)

// statusRecorder feeds the statuses of the library client's requests into
// the fetch evidence trail.
type statusRecorder struct {
	inner webdav.HTTPClient
	state *fetchState
}

func (s *statusRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := s.inner.Do(req)
	if err != nil {
		s.state.statuses = append(s.state.statuses, 0)
		return resp, err
	}
	s.state.statuses = append(s.state.statuses, resp.StatusCode)
	return resp, nil
}

// stageAlternate fetches events through the library protocol client. It is
// the third fallback stage: the library's principal and home-set discovery
// sometimes succeeds against servers whose listings our own PROPFIND walk
// cannot make sense of. The bool reports whether the query itself succeeded.
func (c *Client) stageAlternate(ctx context.Context, start, end time.Time, state *fetchState) ([]ical.Event, bool) {
	var httpClient webdav.HTTPClient = c.http
	// The digest transport already authenticates; basic auth needs the
	// wrapping here because the library builds its own requests.
	httpClient = webdav.HTTPClientWithBasicAuth(httpClient, c.email, c.credential)
	httpClient = &statusRecorder{inner: httpClient, state: state}

	client, err := webcaldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		c.log.Debug().Err(err).Msg("alternate client init failed")
		return nil, false
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("alternate principal discovery failed")
		return nil, false
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		c.log.Debug().Err(err).Msg("alternate home set discovery failed")
		return nil, false
	}
	calendars, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		c.log.Debug().Err(err).Msg("alternate calendar listing failed")
		return nil, false
	}

	query := &webcaldav.CalendarQuery{
		CompRequest: webcaldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []webcaldav.CalendarCompRequest{{
				Name:     "VEVENT",
				AllProps: true,
				AllComps: true,
			}},
		},
		CompFilter: webcaldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []webcaldav.CompFilter{{
				Name:  "VEVENT",
				Start: start.UTC(),
				End:   end.UTC(),
			}},
		},
	}

	var events []ical.Event
	queried := false
	for _, cal := range calendars {
		objects, err := client.QueryCalendar(ctx, cal.Path, query)
		if err != nil {
			c.log.Debug().Err(err).Str("path", cal.Path).Msg("alternate query failed")
			continue
		}
		queried = true
		for _, obj := range objects {
			if obj.Data == nil {
				continue
			}
			events = append(events, ical.EventsFromCalendar(obj.Data, c.loc)...)
		}
	}
	return events, queried
}
