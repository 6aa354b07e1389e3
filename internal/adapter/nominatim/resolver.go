package nominatim

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/wanderplan/places-discovery/internal/domain"
	"github.com/wanderplan/places-discovery/internal/observability"
)

const (
	primaryCandidates    = 5
	simplifiedCandidates = 3
)

// Searcher is the provider-facing query surface of the resolver.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error)
}

// Pacer serializes outbound provider calls so the resolver honors the
// provider's rate expectations.
type Pacer interface {
	Do(ctx context.Context, fn func(context.Context) error) error
}

var invalidAddressChars = regexp.MustCompile(`[^A-Za-z0-9,.\- ]`)

// Resolver turns free-text location queries into coordinates. Lookups
// are cache-first, routed through the pacer, and retried once with a
// simplified query before giving up. Failures are never cached.
type Resolver struct {
	searcher Searcher
	pacer    Pacer
	cache    *lruCache
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu       sync.Mutex
	inFlight map[string]*call
}

type call struct {
	done   chan struct{}
	result domain.GeocodeResult
	err    error
}

// NewResolver creates a geocode resolver backed by searcher, with an
// LRU cache of cacheSize entries.
func NewResolver(searcher Searcher, pacer Pacer, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		searcher: searcher,
		pacer:    pacer,
		cache:    newLRUCache(cacheSize),
		metrics:  metrics,
		logger:   logger,
		inFlight: make(map[string]*call),
	}
}

// Geocode resolves address to coordinates. Concurrent lookups for the
// same normalized address share a single provider round trip.
func (r *Resolver) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	sanitized := sanitizeAddress(address)
	if sanitized == "" {
		return domain.GeocodeResult{}, &domain.GeocodingError{Query: address, Err: domain.ErrNoResults}
	}
	key := normalizeKey(sanitized)

	if result, ok := r.cache.get(key); ok {
		r.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	r.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	r.mu.Lock()
	if existing, ok := r.inFlight[key]; ok {
		r.mu.Unlock()
		select {
		case <-existing.done:
			return existing.result, existing.err
		case <-ctx.Done():
			return domain.GeocodeResult{}, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	r.inFlight[key] = c
	r.mu.Unlock()

	c.result, c.err = r.resolve(ctx, address, sanitized)
	if c.err == nil {
		r.cache.put(key, c.result)
	}

	r.mu.Lock()
	delete(r.inFlight, key)
	r.mu.Unlock()
	close(c.done)

	return c.result, c.err
}

// resolve runs the two-stage lookup. address is the caller's original
// input and is what error values report; sanitized is what goes to the
// provider.
func (r *Resolver) resolve(ctx context.Context, address, sanitized string) (domain.GeocodeResult, error) {
	result, ok, err := r.attempt(ctx, "primary", sanitized, primaryCandidates, pickBest)
	if ok {
		return result, nil
	}
	if err != nil && ctx.Err() != nil {
		return domain.GeocodeResult{}, ctx.Err()
	}

	simplified := firstSegment(sanitized)
	if simplified != "" && simplified != sanitized {
		result, ok, err = r.attempt(ctx, "simplified", simplified, simplifiedCandidates, pickFirst)
		if ok {
			r.logger.Info("geocode resolved via simplified query",
				"query", sanitized,
				"simplified", simplified)
			return result, nil
		}
		if err != nil && ctx.Err() != nil {
			return domain.GeocodeResult{}, ctx.Err()
		}
	}

	return domain.GeocodeResult{}, &domain.GeocodingError{Query: address, Err: domain.ErrNoResults}
}

// attempt runs one paced provider query. ok reports whether a usable
// candidate came back; err is only informational (the caller retries
// on any failure short of context cancellation).
func (r *Resolver) attempt(ctx context.Context, stage, query string, limit int, pick func([]domain.GeocodeResult) (domain.GeocodeResult, bool)) (domain.GeocodeResult, bool, error) {
	var candidates []domain.GeocodeResult
	err := r.pacer.Do(ctx, func(ctx context.Context) error {
		var searchErr error
		candidates, searchErr = r.searcher.Search(ctx, query, limit)
		return searchErr
	})
	if err != nil {
		r.metrics.GeocodeRequests.WithLabelValues(stage, "error").Inc()
		r.logger.Warn("geocode attempt failed", "stage", stage, "query", query, "error", err)
		return domain.GeocodeResult{}, false, err
	}

	result, ok := pick(candidates)
	if !ok {
		r.metrics.GeocodeRequests.WithLabelValues(stage, "empty").Inc()
		return domain.GeocodeResult{}, false, nil
	}
	r.metrics.GeocodeRequests.WithLabelValues(stage, "ok").Inc()
	return result, true, nil
}

// pickBest prefers a specifically-named place over a generic area: a
// candidate whose name differs from the leading segment of its own
// display address names something more precise than the area itself.
func pickBest(candidates []domain.GeocodeResult) (domain.GeocodeResult, bool) {
	if len(candidates) == 0 {
		return domain.GeocodeResult{}, false
	}
	for _, c := range candidates {
		if c.Name != "" && c.Name != firstSegment(c.FormattedAddress) {
			return c, true
		}
	}
	return candidates[0], true
}

func pickFirst(candidates []domain.GeocodeResult) (domain.GeocodeResult, bool) {
	if len(candidates) == 0 {
		return domain.GeocodeResult{}, false
	}
	return candidates[0], true
}

// sanitizeAddress strips characters the provider chokes on and
// collapses runs of whitespace.
func sanitizeAddress(address string) string {
	cleaned := invalidAddressChars.ReplaceAllString(address, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

func normalizeKey(sanitized string) string {
	return strings.ToLower(sanitized)
}

func firstSegment(address string) string {
	segment, _, _ := strings.Cut(address, ",")
	return strings.TrimSpace(segment)
}

var _ domain.Geocoder = (*Resolver)(nil)
