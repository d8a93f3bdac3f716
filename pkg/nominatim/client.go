// Package nominatim searches places by free text through the Nominatim API.
// Each search is a single request: failures are reported, never retried.
package nominatim

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/geoquery/internal/messages"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

const (
	defaultLimit     = 10
	defaultUserAgent = "geoquery/1.0 (+https://github.com/sells-group/geoquery)"
)

// searchError is the type behind the package's sentinel failures.
type searchError struct {
	msg string
	key messages.Key
}

func (e *searchError) Error() string { return e.msg }

// Localize implements messages.Localizer.
func (e *searchError) Localize(p *messages.Printer) string { return p.Text(e.key) }

var (
	// ErrRateLimited is returned when Nominatim answers 429.
	ErrRateLimited error = &searchError{msg: "nominatim: rate limited", key: messages.SearchRateLimited}

	// ErrFetch is returned for any other failed search: transport errors,
	// non-2xx statuses and undecodable bodies.
	ErrFetch error = &searchError{msg: "nominatim: search failed", key: messages.SearchFetchError}

	// ErrInvalidCoordinates is returned when results arrived but none had
	// usable coordinates.
	ErrInvalidCoordinates error = &searchError{msg: "nominatim: no result with valid coordinates", key: messages.InvalidCoords}

	// ErrEmptyQuery is returned for a blank query without contacting the server.
	ErrEmptyQuery error = &searchError{msg: "nominatim: empty query", key: messages.SearchEmptyQuery}
)

// Place is one search result with parsed coordinates.
type Place struct {
	DisplayName string  `json:"display_name" yaml:"display_name"`
	Lat         float64 `json:"lat" yaml:"lat"`
	Lon         float64 `json:"lon" yaml:"lon"`
	OSMType     string  `json:"osm_type" yaml:"osm_type"`
	OSMID       int64   `json:"osm_id" yaml:"osm_id"`
	Class       string  `json:"class" yaml:"class"`
	Type        string  `json:"type" yaml:"type"`
}

// rawPlace mirrors the API. Coordinates normally arrive as strings but are
// kept raw so numbers or junk only invalidate their own entry.
type rawPlace struct {
	DisplayName string          `json:"display_name"`
	Lat         json.RawMessage `json:"lat"`
	Lon         json.RawMessage `json:"lon"`
	OSMType     string `json:"osm_type"`
	OSMID       int64  `json:"osm_id"`
	Class       string `json:"class"`
	Type        string `json:"type"`
}

// Client searches places.
type Client interface {
	// Search returns the places matching query in the server's order. Entries
	// without finite coordinates are dropped. No match is an empty slice, not
	// an error.
	Search(ctx context.Context, query string) ([]Place, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets the Nominatim base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit sets the requests-per-second limit. Nominatim's usage policy
// allows at most one request per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLimit sets the maximum number of results requested.
func WithLimit(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithUserAgent sets the User-Agent header identifying the application.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	limit     int
	userAgent string
}

// NewClient creates a Nominatim client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   DefaultBaseURL,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(1, 1),
		limit:     defaultLimit,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search performs one search request.
func (c *httpClient) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit wait")
	}

	params := url.Values{
		"format": {"json"},
		"q":      {query},
		"limit":  {strconv.Itoa(c.limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(ErrFetch, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		zap.L().Warn("nominatim: request failed", zap.String("query", query), zap.Error(err))
		return nil, eris.Wrap(ErrFetch, err.Error())
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		zap.L().Warn("nominatim: rate limited", zap.String("query", query))
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Warn("nominatim: unexpected status", zap.String("query", query), zap.Int("status", resp.StatusCode))
		return nil, eris.Wrapf(ErrFetch, "status %d", resp.StatusCode)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, eris.Wrapf(ErrFetch, "decode: %v", err)
	}

	places := make([]Place, 0, len(raw))
	for _, entry := range raw {
		var r rawPlace
		if err := json.Unmarshal(entry, &r); err != nil {
			zap.L().Debug("nominatim: skipping malformed entry", zap.Error(err))
			continue
		}
		lat, latOK := parseCoord(r.Lat)
		lon, lonOK := parseCoord(r.Lon)
		if !latOK || !lonOK {
			continue
		}
		places = append(places, Place{
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lon:         lon,
			OSMType:     r.OSMType,
			OSMID:       r.OSMID,
			Class:       r.Class,
			Type:        r.Type,
		})
	}

	if len(raw) > 0 && len(places) == 0 {
		return nil, ErrInvalidCoordinates
	}

	zap.L().Debug("nominatim: search done",
		zap.String("query", query),
		zap.Int("results", len(raw)),
		zap.Int("usable", len(places)),
	)
	return places, nil
}

// parseCoord accepts a coordinate given as a JSON string or number.
func parseCoord(raw json.RawMessage) (float64, bool) {
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
