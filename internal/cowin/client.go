// Package cowin is a minimal client for the CoWIN public appointment API.
// Only the calendar endpoints used by the watcher are implemented.
package cowin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public CoWIN API root.
const DefaultBaseURL = "https://cdn-api.co-vin.in/api/v2"

// DateFormat is the query-parameter date layout the API expects.
const DateFormat = "02-01-2006"

// unauthenticatedBody is the sentinel body the API returns when it rejects
// a request that is missing the expected browser headers.
const unauthenticatedBody = "Unauthenticated access!"

// ErrUnauthenticated is returned when the API answers with its
// unauthenticated-access sentinel instead of a session listing.
var ErrUnauthenticated = errors.New("cowin: unauthenticated access")

// Client calls the CoWIN appointment API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root. Used by tests to point at a local server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client with a 15 second default timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCalendarByPin returns the week of session listings for a pincode
// starting at date.
func (c *Client) FetchCalendarByPin(ctx context.Context, pincode string, date time.Time) (*CalendarResponse, error) {
	q := url.Values{}
	q.Set("pincode", pincode)
	q.Set("date", date.Format(DateFormat))
	return c.fetchCalendar(ctx, "/appointment/sessions/calendarByPin", q)
}

// FetchCalendarByDistrict returns the week of session listings for a district
// starting at date.
func (c *Client) FetchCalendarByDistrict(ctx context.Context, districtID string, date time.Time) (*CalendarResponse, error) {
	q := url.Values{}
	q.Set("district_id", districtID)
	q.Set("date", date.Format(DateFormat))
	return c.fetchCalendar(ctx, "/appointment/sessions/calendarByDistrict", q)
}

// fetchCalendar performs the GET and decodes the response, detecting the
// unauthenticated sentinel before attempting to parse.
func (c *Client) fetchCalendar(ctx context.Context, path string, q url.Values) (*CalendarResponse, error) {
	u := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; slotwatch)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling CoWIN %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if strings.TrimSpace(string(body)) == unauthenticatedBody {
		return nil, ErrUnauthenticated
	}

	var cal CalendarResponse
	if err := json.Unmarshal(body, &cal); err != nil {
		return nil, fmt.Errorf("parsing calendar response (status %d): %w", resp.StatusCode, err)
	}

	return &cal, nil
}
