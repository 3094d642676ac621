package caldav

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomas1pit/loop-calendar-bot/internal/ical"
)

// CreateEvent writes a new meeting into the user's primary calendar and
// returns the UID the object was stored under.
func (c *Client) CreateEvent(ctx context.Context, m ical.Meeting) (string, error) {
	collections := c.Discover(ctx)
	if len(collections) == 0 {
		return "", fmt.Errorf("no calendar collection to create event in")
	}

	uid, payload, err := ical.BuildMeeting(m)
	if err != nil {
		return "", err
	}

	url := c.absoluteURL(collections[0].Href)
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	url += uid + ".ics"

	headers := map[string]string{"Content-Type": "text/calendar; charset=utf-8"}
	status, _, err := c.do(ctx, http.MethodPut, url, headers, payload)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		c.log.Info().Str("uid", uid).Str("url", url).Msg("event created")
		return uid, nil
	default:
		return "", fmt.Errorf("create event: server returned %d", status)
	}
}
