package caldav

import (
	"context"
	"time"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
	"github.com/tomas1pit/loop-calendar-bot/internal/metrics"
)

// widenSpan is the width of the second-stage query window when the primary
// query comes back empty. Some servers mishandle narrow time ranges.
const widenSpan = 7 * 24 * time.Hour

// FetchResult is the outcome of one fetch cycle.
type FetchResult struct {
	Events []ical.Event

	// Trustworthy is true when at least one calendar query request
	// received a success status. An untrustworthy empty result must not
	// be read as "the calendar is empty".
	Trustworthy bool

	// Statuses collects the HTTP statuses of every request made during
	// the cycle, the alternate client's traffic included, in order. Zero
	// means the request got no response.
	Statuses []int
}

// fetchState accumulates evidence across fallback stages.
type fetchState struct {
	statuses    []int
	rawPayloads []string
	trustworthy bool
}

// FetchEvents retrieves the user's events intersecting [start, end). It
// walks a ladder of strategies, stopping at the first that yields events:
// the primary calendar query, the same query over a widened window, an
// alternate protocol client, and finally textual extraction from whatever
// raw payloads the earlier stages produced. Later stages never discard
// earlier evidence.
func (c *Client) FetchEvents(ctx context.Context, start, end time.Time) FetchResult {
	collections := c.Discover(ctx)
	state := &fetchState{}

	events := c.stageReport(ctx, collections, start, end, state)

	if len(events) == 0 {
		metrics.ObserveFallbackStage("widened")
		c.log.Debug().Msg("primary query empty, widening window")
		widened := c.stageReport(ctx, collections, start, start.Add(widenSpan), state)
		events = filterWindow(widened, start, end)
	}

	if len(events) == 0 {
		metrics.ObserveFallbackStage("alternate")
		c.log.Debug().Msg("widened query empty, trying alternate client")
		alt, ok := c.stageAlternate(ctx, start, end, state)
		if ok {
			state.trustworthy = true
		}
		events = filterWindow(alt, start, end)
	}

	if len(events) == 0 && len(state.rawPayloads) > 0 {
		metrics.ObserveFallbackStage("textual")
		c.log.Debug().Msg("structured parsing empty, trying textual extraction")
		events = filterWindow(c.stageTextual(state.rawPayloads), start, end)
	}

	if !state.trustworthy {
		metrics.ObserveUntrustedFetch()
		c.log.Warn().Ints("statuses", state.statuses).Msg("fetch cycle had no successful query")
	}

	return FetchResult{
		Events:      dedupeByUID(events),
		Trustworthy: state.trustworthy,
		Statuses:    state.statuses,
	}
}

// stageReport runs the calendar query against every collection and parses
// whatever comes back. Raw payloads are retained for the textual stage even
// when structured parsing fails.
func (c *Client) stageReport(ctx context.Context, collections []Collection, start, end time.Time, state *fetchState) []ical.Event {
	body := calendarQuery(start, end)
	var events []ical.Event
	for _, col := range collections {
		url := c.absoluteURL(col.Href)
		status, payload, err := c.report(ctx, url, body)
		state.statuses = append(state.statuses, status)
		if err != nil {
			c.log.Debug().Err(err).Str("url", url).Msg("calendar query failed")
			continue
		}
		if !statusOK(status) {
			c.log.Debug().Int("status", status).Str("url", url).Msg("calendar query rejected")
			continue
		}
		state.trustworthy = true
		if len(payload) > 0 {
			state.rawPayloads = append(state.rawPayloads, string(payload))
		}

		ms, err := parseMultistatus(payload)
		if err != nil {
			c.log.Debug().Err(err).Str("url", url).Msg("query response unparsable")
			continue
		}
		for _, block := range ms.calendarDataBlocks() {
			parsed, err := ical.ParseCalendarData(block, c.loc)
			if err != nil {
				c.log.Debug().Err(err).Str("url", url).Msg("calendar data unparsable")
				continue
			}
			events = append(events, parsed...)
		}
	}
	return events
}

// stageTextual recovers events from retained raw payloads with pattern
// matching. These records may be partial.
func (c *Client) stageTextual(payloads []string) []ical.Event {
	var events []ical.Event
	for _, payload := range payloads {
		events = append(events, ical.ExtractEvents(payload, c.loc, "textual")...)
	}
	return events
}

// filterWindow keeps events that intersect [start, end).
func filterWindow(events []ical.Event, start, end time.Time) []ical.Event {
	var kept []ical.Event
	for _, ev := range events {
		if ev.Start.Before(end) && !ev.End.Before(start) {
			kept = append(kept, ev)
		}
	}
	return kept
}

// dedupeByUID drops repeated UIDs, keeping the first occurrence. The same
// event can appear in multiple collections.
func dedupeByUID(events []ical.Event) []ical.Event {
	if len(events) < 2 {
		return events
	}
	seen := make(map[string]bool, len(events))
	kept := events[:0]
	for _, ev := range events {
		if ev.UID != "" && seen[ev.UID] {
			continue
		}
		seen[ev.UID] = true
		kept = append(kept, ev)
	}
	return kept
}
