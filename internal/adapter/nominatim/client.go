// Package nominatim resolves free-text locations through the OSM
// Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wanderplan/places-discovery/internal/domain"
	"github.com/wanderplan/places-discovery/internal/observability"
)

// Client queries the Nominatim search API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim search client. userAgent must be a
// descriptive identifier; Nominatim blocks anonymous clients.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Search queries for up to limit candidate matches. Candidates with
// missing or non-numeric coordinates are dropped, so an empty slice
// with a nil error means the provider had no usable result.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {strconv.Itoa(limit)},
	}
	fullURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues("nominatim").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var raw []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]domain.GeocodeResult, 0, len(raw))
	for _, r := range raw {
		if gr, ok := r.toGeocodeResult(); ok {
			results = append(results, gr)
		}
	}
	return results, nil
}

// Nominatim API response types. Coordinates arrive as strings.

type searchResult struct {
	PlaceID     int64    `json:"place_id"`
	DisplayName string   `json:"display_name"`
	Name        string   `json:"name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"` // [south, north, west, east]
}

func (r searchResult) toGeocodeResult() (domain.GeocodeResult, bool) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return domain.GeocodeResult{}, false
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return domain.GeocodeResult{}, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.GeocodeResult{}, false
	}

	return domain.GeocodeResult{
		Latitude:         lat,
		Longitude:        lon,
		FormattedAddress: r.DisplayName,
		ProviderID:       strconv.FormatInt(r.PlaceID, 10),
		Name:             r.Name,
		Bounds:           parseBoundingBox(r.BoundingBox),
	}, true
}

func parseBoundingBox(box []string) *domain.Bounds {
	if len(box) != 4 {
		return nil
	}
	vals := make([]float64, 4)
	for i, s := range box {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		vals[i] = v
	}
	return &domain.Bounds{South: vals[0], North: vals[1], West: vals[2], East: vals[3]}
}
