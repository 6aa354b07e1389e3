package nominatim

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/places-discovery/internal/domain"
)

const (
	testWait = 2 * time.Second
	testTick = 10 * time.Millisecond
)

// passPacer runs tasks inline, no pacing.
type passPacer struct{}

func (passPacer) Do(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]domain.GeocodeResult
	errs    map[string]error
	block   chan struct{} // when non-nil, Search waits on it
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.results[query], nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testResolver(s Searcher) *Resolver {
	return NewResolver(s, passPacer{}, 100, testMetrics(), testLogger())
}

func milanResult() domain.GeocodeResult {
	return domain.GeocodeResult{
		Latitude:         45.4641,
		Longitude:        9.1919,
		FormattedAddress: "Piazza del Duomo, Milano, Lombardia, Italia",
		Name:             "Piazza del Duomo",
		ProviderID:       "42",
	}
}

func TestResolver_Geocode_Success(t *testing.T) {
	s := &fakeSearcher{results: map[string][]domain.GeocodeResult{
		"Piazza del Duomo, Milano": {milanResult()},
	}}
	r := testResolver(s)

	result, err := r.Geocode(context.Background(), "Piazza del Duomo, Milano")
	require.NoError(t, err)
	assert.Equal(t, 45.4641, result.Latitude)
	assert.Equal(t, 9.1919, result.Longitude)
}

func TestResolver_Geocode_SanitizesQuery(t *testing.T) {
	s := &fakeSearcher{results: map[string][]domain.GeocodeResult{
		"Piazza del Duomo, Milano": {milanResult()},
	}}
	r := testResolver(s)

	_, err := r.Geocode(context.Background(), "  Piazza  del   Duomo?!, Milano© ")
	require.NoError(t, err)
	require.Equal(t, 1, s.callCount())
	assert.Equal(t, "Piazza del Duomo, Milano", s.calls[0])
}

func TestResolver_Geocode_EmptyAfterSanitize(t *testing.T) {
	s := &fakeSearcher{}
	r := testResolver(s)

	_, err := r.Geocode(context.Background(), "©®™")
	var gerr *domain.GeocodingError
	require.ErrorAs(t, err, &gerr)
	assert.Zero(t, s.callCount())
}

func TestResolver_Geocode_CacheHitSkipsProvider(t *testing.T) {
	s := &fakeSearcher{results: map[string][]domain.GeocodeResult{
		"Piazza del Duomo, Milano": {milanResult()},
	}}
	r := testResolver(s)

	_, err := r.Geocode(context.Background(), "Piazza del Duomo, Milano")
	require.NoError(t, err)

	// Same query modulo case hits the cache.
	result, err := r.Geocode(context.Background(), "piazza del duomo, MILANO")
	require.NoError(t, err)
	assert.Equal(t, "42", result.ProviderID)
	assert.Equal(t, 1, s.callCount())
}

func TestResolver_Geocode_FailuresNotCached(t *testing.T) {
	s := &fakeSearcher{errs: map[string]error{
		"Atlantis": errors.New("provider down"),
	}}
	r := testResolver(s)

	_, err := r.Geocode(context.Background(), "Atlantis")
	require.Error(t, err)
	firstCalls := s.callCount()

	// The provider recovers; a retry must reach it instead of a
	// poisoned cache entry.
	s.mu.Lock()
	s.errs = nil
	s.results = map[string][]domain.GeocodeResult{"Atlantis": {milanResult()}}
	s.mu.Unlock()

	_, err = r.Geocode(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Greater(t, s.callCount(), firstCalls)
}

func TestResolver_Geocode_SimplifiedRetry(t *testing.T) {
	s := &fakeSearcher{results: map[string][]domain.GeocodeResult{
		"Piazza del Duomo, Milano": {},
		"Piazza del Duomo":         {milanResult()},
	}}
	r := testResolver(s)

	result, err := r.Geocode(context.Background(), "Piazza del Duomo, Milano")
	require.NoError(t, err)
	assert.Equal(t, 45.4641, result.Latitude)
	require.Equal(t, 2, s.callCount())
	assert.Equal(t, "Piazza del Duomo, Milano", s.calls[0])
	assert.Equal(t, "Piazza del Duomo", s.calls[1])
}

func TestResolver_Geocode_BothAttemptsFail(t *testing.T) {
	s := &fakeSearcher{}
	r := testResolver(s)

	_, err := r.Geocode(context.Background(), "Piazza del Duomo, Milano")
	var gerr *domain.GeocodingError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Piazza del Duomo, Milano", gerr.Query)
	assert.Equal(t, 2, s.callCount())
}

func TestResolver_Geocode_ErrorCarriesOriginalAddress(t *testing.T) {
	s := &fakeSearcher{}
	r := testResolver(s)

	_, err := r.Geocode(context.Background(), "Atlantis??")
	var gerr *domain.GeocodingError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Atlantis??", gerr.Query)
	assert.Equal(t, []string{"Atlantis"}, s.calls)
}

func TestResolver_Geocode_NoRetryWithoutComma(t *testing.T) {
	s := &fakeSearcher{}
	r := testResolver(s)

	_, err := r.Geocode(context.Background(), "Milano")
	require.Error(t, err)
	assert.Equal(t, 1, s.callCount())
}

func TestResolver_Geocode_InFlightDedup(t *testing.T) {
	block := make(chan struct{})
	s := &fakeSearcher{
		results: map[string][]domain.GeocodeResult{
			"Piazza del Duomo, Milano": {milanResult()},
		},
		block: block,
	}
	r := testResolver(s)

	const waiters = 5
	var wg sync.WaitGroup
	var okCount atomic.Int64
	for range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := r.Geocode(context.Background(), "Piazza del Duomo, Milano")
			if err == nil && result.ProviderID == "42" {
				okCount.Add(1)
			}
		}()
	}

	// Wait until at least one goroutine reached the provider, then
	// release it; the other waiters must piggyback on that call.
	require.Eventually(t, func() bool { return s.callCount() >= 1 }, testWait, testTick)
	close(block)
	wg.Wait()

	assert.Equal(t, int64(waiters), okCount.Load())
	assert.Equal(t, 1, s.callCount())
}

func TestPickBest_PrefersSpecificName(t *testing.T) {
	generic := domain.GeocodeResult{
		Name:             "Milano",
		FormattedAddress: "Milano, Lombardia, Italia",
		ProviderID:       "1",
	}
	specific := domain.GeocodeResult{
		Name:             "Teatro alla Scala",
		FormattedAddress: "Milano, Lombardia, Italia",
		ProviderID:       "2",
	}

	result, ok := pickBest([]domain.GeocodeResult{generic, specific})
	require.True(t, ok)
	assert.Equal(t, "2", result.ProviderID)
}

func TestPickBest_FallsBackToFirst(t *testing.T) {
	generic := domain.GeocodeResult{
		Name:             "Milano",
		FormattedAddress: "Milano, Lombardia, Italia",
		ProviderID:       "1",
	}

	result, ok := pickBest([]domain.GeocodeResult{generic})
	require.True(t, ok)
	assert.Equal(t, "1", result.ProviderID)
}

func TestSanitizeAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unchanged", "12 Rue de Rivoli, Paris", "12 Rue de Rivoli, Paris"},
		{"strips symbols", "Café «Lumière» & Co!", "Caf Lumi re Co"},
		{"collapses whitespace", "  a   b\t c ", "a b c"},
		{"keeps hyphen and dot", "St.-Denis", "St.-Denis"},
		{"empty", "✈✈✈", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeAddress(tt.input))
		})
	}
}
