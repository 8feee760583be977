package nasa

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

var (
	// ErrNoData is returned when the endpoint answers with an empty document
	ErrNoData = errors.New("no data returned")
	// ErrUnknownAPI is returned for a name missing from APIs
	ErrUnknownAPI = errors.New("unknown API")
)

// API is one selectable data source
type API struct {
	Name string
	URL  string
}

// APIs is the fixed catalogue, in dropdown order
var APIs = []API{
	{Name: "Near-Earth Object (NEO)", URL: "https://api.nasa.gov/neo/rest/v1/feed"},
	{Name: "Mars Rover Photos", URL: "https://api.nasa.gov/mars-photos/api/v1/rovers/curiosity/photos"},
	{Name: "Astronomy Picture of the Day (APOD)", URL: "https://api.nasa.gov/planetary/apod"},
}

// Lookup returns the catalogue entry for name
func Lookup(name string) (API, bool) {
	for _, a := range APIs {
		if a.Name == name {
			return a, true
		}
	}
	return API{}, false
}

// StatusError is returned for a non-2xx response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("nasa status %d", e.Code)
	}
	return fmt.Sprintf("nasa status %d: %s", e.Code, e.Body)
}

// Request describes one fetch
type Request struct {
	API       string
	APIKey    string
	StartDate string
	EndDate   string
}

// Client issues the data fetch that gates generation
type Client struct {
	httpClient *http.Client
	baseURL    string // replaces scheme+host of catalogue URLs when set
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL points every catalogue entry at another host, keeping its path
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client with a 30s timeout unless overridden
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs one GET and reports whether usable data came back.
// The body is decoded to confirm it is JSON and non-empty, then dropped.
func (c *Client) Fetch(ctx context.Context, r Request) error {
	api, ok := Lookup(r.API)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAPI, r.API)
	}

	endpoint, err := c.endpoint(api)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("api_key", r.APIKey)
	q.Set("start_date", r.StartDate)
	q.Set("end_date", r.EndDate)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error prints the full URL, api_key included
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redactKey(uerr.URL)
		}
		return fmt.Errorf("nasa request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrNoData
		}
		return fmt.Errorf("decode: %w", err)
	}
	if isEmpty(payload) {
		return ErrNoData
	}

	return nil
}

func (c *Client) endpoint(api API) (*url.URL, error) {
	u, err := url.Parse(api.URL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", api.URL, err)
	}
	if c.baseURL == "" {
		return u, nil
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base %s: %w", c.baseURL, err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + u.Path
	return base, nil
}

// redactKey masks the api_key query parameter of raw
func redactKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		base, _, _ := strings.Cut(raw, "?")
		return base
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	}
	return false
}
