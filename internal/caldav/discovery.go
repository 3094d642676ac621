package caldav

import (
	"context"
	"strings"
)

// Collection is one discovered calendar collection.
type Collection struct {
	Href        string
	DisplayName string
}

// preferredNames mark collections that represent the user's primary
// calendar. Matching is case-insensitive against the display name.
var preferredNames = map[string]bool{
	"main":     true,
	"основной": true,
	"primary":  true,
	"default":  true,
}

// Discover locates the user's calendar collections. It never returns an
// error: discovery failures degrade to probing conventional candidate
// paths, and a server that answers nothing yields an empty set.
func (c *Client) Discover(ctx context.Context) []Collection {
	collections, root := c.listCalendars(ctx, c.PrincipalURL())

	// Some servers keep the principal and the calendar home apart. When
	// the principal listing carried a calendars-root marker, list there
	// before giving up.
	if len(collections) == 0 && root != "" {
		collections, _ = c.listCalendars(ctx, c.absoluteURL(root))
	}

	if preferred := filterPreferred(collections); len(preferred) > 0 {
		return preferred
	}
	if len(collections) > 0 {
		return collections
	}

	c.log.Debug().Msg("discovery found no calendars, probing candidate paths")
	return c.candidateCollections(ctx)
}

// listCalendars lists one container and keeps the calendar-typed children.
// A non-calendar child whose href ends in "/calendars/" is reported as the
// calendars root for a second listing pass.
func (c *Client) listCalendars(ctx context.Context, url string) ([]Collection, string) {
	status, payload, err := c.propfind(ctx, url, "1")
	if err != nil {
		c.log.Debug().Err(err).Str("url", url).Msg("calendar listing failed")
		return nil, ""
	}
	if !statusOK(status) {
		c.log.Debug().Int("status", status).Str("url", url).Msg("calendar listing rejected")
		return nil, ""
	}
	ms, err := parseMultistatus(payload)
	if err != nil {
		c.log.Debug().Err(err).Str("url", url).Msg("calendar listing unparsable")
		return nil, ""
	}

	var collections []Collection
	var root string
	for _, resp := range ms.Responses {
		href := strings.TrimSpace(resp.Href)
		if href == "" {
			continue
		}
		if resp.isCalendar() {
			collections = append(collections, Collection{
				Href:        href,
				DisplayName: resp.displayName(),
			})
			continue
		}
		if strings.HasSuffix(href, "/calendars/") {
			root = href
		}
	}
	return collections, root
}

// filterPreferred keeps collections whose display name marks them as the
// primary calendar.
func filterPreferred(collections []Collection) []Collection {
	var preferred []Collection
	for _, col := range collections {
		if preferredNames[strings.ToLower(col.DisplayName)] {
			preferred = append(preferred, col)
		}
	}
	return preferred
}

// candidateCollections probes the calendar paths servers commonly use, for
// when discovery itself is broken. A depth-0 PROPFIND checks each candidate
// exists; the first that answers wins. No candidate answering means no
// collections at all, which downstream must not mistake for an empty
// calendar.
func (c *Client) candidateCollections(ctx context.Context) []Collection {
	local, domain, ok := strings.Cut(c.email, "@")
	if !ok || local == "" || domain == "" {
		return nil
	}
	suffixes := []string{
		"/calendars/" + domain + "/" + local + "/",
		"/calendars/" + domain + "/" + local + "/events/",
		c.principalPath + domain + "/" + local + "/calendars/",
		c.principalPath + domain + "/" + local + "/",
	}
	for _, suffix := range suffixes {
		status, _, err := c.propfind(ctx, c.baseURL+suffix, "0")
		if err != nil || !statusOK(status) {
			continue
		}
		c.log.Debug().Str("href", suffix).Msg("candidate path answered")
		return []Collection{{Href: suffix}}
	}
	return nil
}
