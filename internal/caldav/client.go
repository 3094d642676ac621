package caldav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dac "github.com/Snawoot/go-http-digest-auth-client"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomas1pit/loop-calendar-bot/internal/metrics"
)

// AuthScheme selects how outbound requests authenticate.
type AuthScheme string

const (
	AuthBasic  AuthScheme = "basic"
	AuthDigest AuthScheme = "digest"
)

// Options configures a per-user protocol client.
type Options struct {
	BaseURL       string
	PrincipalPath string
	Email         string
	Credential    string
	Auth          AuthScheme

	// Limiter paces all outbound requests. Shared across users.
	Limiter *rate.Limiter

	// Location is the timezone events are normalized to.
	Location *time.Location

	Logger zerolog.Logger

	// HTTPClient overrides the underlying transport, for tests.
	HTTPClient *http.Client
}

// Client speaks the calendar protocol for one user.
type Client struct {
	http          *http.Client
	baseURL       string
	principalPath string
	email         string
	credential    string
	limiter       *rate.Limiter
	loc           *time.Location
	log           zerolog.Logger
}

// New builds a protocol client. Digest auth wraps the transport; basic auth
// is applied per request.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Auth == AuthDigest {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		httpClient = &http.Client{
			Timeout:   httpClient.Timeout,
			Transport: dac.NewDigestTransport(opts.Email, opts.Credential, base),
		}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		http:          httpClient,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		principalPath: opts.PrincipalPath,
		email:         opts.Email,
		credential:    opts.Credential,
		limiter:       opts.Limiter,
		loc:           loc,
		log:           opts.Logger,
	}
}

// PrincipalURL resolves the principal location deterministically from the
// account address: <base>/<principal-path><domain>/<local-part>/. A
// malformed address degrades to the bare principal path.
func (c *Client) PrincipalURL() string {
	local, domain, ok := strings.Cut(c.email, "@")
	if !ok || local == "" || domain == "" {
		return c.baseURL + c.principalPath
	}
	return fmt.Sprintf("%s%s%s/%s/", c.baseURL, c.principalPath, domain, local)
}

// absoluteURL converts server-relative hrefs to absolute URLs.
func (c *Client) absoluteURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return c.baseURL + href
	}
	return href
}

// do executes one protocol request. A zero status with a non-nil error means
// the request never got a response.
func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body []byte) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", method, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.SetBasicAuth(c.email, c.credential)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveCalDAVRequest(method, 0, start)
		return 0, nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	metrics.ObserveCalDAVRequest(method, resp.StatusCode, start)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", method, err)
	}
	return resp.StatusCode, payload, nil
}

// propfind issues a shallow directory listing. depth is "0" or "1".
func (c *Client) propfind(ctx context.Context, url, depth string) (int, []byte, error) {
	return c.do(ctx, "PROPFIND", url, map[string]string{"Depth": depth}, nil)
}

// report issues a calendar REPORT query against one collection.
func (c *Client) report(ctx context.Context, url string, body string) (int, []byte, error) {
	headers := map[string]string{
		"Depth":        "1",
		"Content-Type": "application/xml; charset=utf-8",
	}
	return c.do(ctx, "REPORT", url, headers, []byte(body))
}

// Ping verifies the credential by probing the principal location.
func (c *Client) Ping(ctx context.Context) bool {
	status, _, err := c.propfind(ctx, c.PrincipalURL(), "0")
	if err != nil {
		c.log.Debug().Err(err).Msg("principal probe failed")
		return false
	}
	return statusOK(status)
}

// RawReport returns the raw REPORT bodies for a window, annotated with
// href and status, for diagnostics.
func (c *Client) RawReport(ctx context.Context, start, end time.Time) string {
	collections := c.Discover(ctx)
	if len(collections) == 0 {
		return "no calendars found"
	}
	body := calendarQuery(start, end)
	var blocks []string
	for _, col := range collections {
		url := c.absoluteURL(col.Href)
		status, payload, err := c.report(ctx, url, body)
		if err != nil {
			blocks = append(blocks, fmt.Sprintf("<!-- href=%s error=%v -->", url, err))
			continue
		}
		blocks = append(blocks, fmt.Sprintf("<!-- href=%s status=%d len=%d -->\n%s", url, status, len(payload), payload))
	}
	return strings.Join(blocks, "\n\n")
}

func statusOK(status int) bool {
	return status == http.StatusOK || status == http.StatusMultiStatus
}
