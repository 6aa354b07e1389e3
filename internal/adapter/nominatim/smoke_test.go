//go:build osm

package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/places-discovery/internal/observability"
)

// These tests hit the public Nominatim API. They are rate-limited to one
// request per second by the provider, so keep them sparse.
// Run with: go test -tags=osm ./internal/adapter/nominatim/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	return &Client{
		baseURL:    "https://nominatim.openstreetmap.org",
		userAgent:  "places-discovery-smoke/0.1 (dev@wanderplan.io)",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_Search(t *testing.T) {
	c := smokeClient(t)

	results, err := c.Search(context.Background(), "Piazza del Duomo, Milano", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.InDelta(t, 45.46, results[0].Latitude, 0.1, "lat should be near Milan")
	assert.InDelta(t, 9.19, results[0].Longitude, 0.1, "lon should be near Milan")
	assert.Contains(t, results[0].FormattedAddress, "Milano")
}

func TestSmoke_Search_Nonsense(t *testing.T) {
	c := smokeClient(t)

	results, err := c.Search(context.Background(), "xyznonexistent99zz", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
