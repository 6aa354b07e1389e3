// Package discovery orchestrates geocoding, place search, and ranking
// into a single destination discovery flow.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wanderplan/places-discovery/internal/domain"
	"github.com/wanderplan/places-discovery/internal/observability"
)

// PlaceSearcher fetches candidate places of one category around a point.
type PlaceSearcher interface {
	Search(ctx context.Context, center domain.Coordinates, category string, radiusMeters int) ([]domain.Place, error)
}

// EventPublisher emits telemetry events. Publishing is best-effort;
// implementations must not block discovery on broker trouble.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DiscoveryEvent) error
}

// Service ties the resolver, place search, and ranking together.
type Service struct {
	geocoder         domain.Geocoder
	places           PlaceSearcher
	categoryInterval time.Duration
	events           EventPublisher
	clock            clockwork.Clock
	metrics          *observability.Metrics
	logger           *slog.Logger
}

// New creates a discovery service. categoryInterval is the explicit
// pacing delay inserted between category searches within one request,
// on top of the scheduler's own inter-request delay; events may be nil
// when telemetry is disabled.
func New(
	geocoder domain.Geocoder,
	places PlaceSearcher,
	categoryInterval time.Duration,
	events EventPublisher,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		geocoder:         geocoder,
		places:           places,
		categoryInterval: categoryInterval,
		events:           events,
		clock:            clock,
		metrics:          metrics,
		logger:           logger,
	}
}

// ResolveLocation resolves a free-text address to coordinates. A
// GeocodingError is returned as-is so callers can decide whether a
// fallback coordinate is acceptable.
func (s *Service) ResolveLocation(ctx context.Context, address string) (domain.GeocodeResult, error) {
	return s.geocoder.Geocode(ctx, address)
}

// ResolveWithFallback resolves an address, substituting a fallback city
// coordinate when both geocoding attempts are exhausted. Provider
// errors other than exhaustion still propagate.
func (s *Service) ResolveWithFallback(ctx context.Context, address string) (domain.GeocodeResult, error) {
	result, err := s.ResolveLocation(ctx, address)
	if err == nil {
		return result, nil
	}

	var gerr *domain.GeocodingError
	if !errors.As(err, &gerr) {
		return domain.GeocodeResult{}, err
	}

	coords := domain.FallbackCoordinates(address)
	s.metrics.FallbacksApplied.Inc()
	s.logger.Warn("geocoding exhausted, substituting fallback coordinates",
		"address", address,
		"lat", coords.Lat,
		"lng", coords.Lng)
	s.publish(ctx, domain.DiscoveryEvent{
		Kind:        domain.EventGeocodeFallback,
		Destination: address,
	})

	return domain.GeocodeResult{
		Latitude:         coords.Lat,
		Longitude:        coords.Lng,
		FormattedAddress: address,
		Name:             address,
		ProviderID:       "fallback",
	}, nil
}

// SearchPlaces resolves destination and returns candidate places of a
// single category around it. Provider trouble on the search side is
// absorbed into an empty list; only geocoding failures propagate,
// since without a center point there is nothing to search.
func (s *Service) SearchPlaces(ctx context.Context, destination, category string, radiusMeters int) ([]domain.Place, error) {
	center, err := s.geocoder.Geocode(ctx, destination)
	if err != nil {
		return nil, fmt.Errorf("resolve destination: %w", err)
	}

	places, err := s.places.Search(ctx, center.Coordinates(), category, radiusMeters)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.metrics.PlaceSearches.WithLabelValues("error").Inc()
		s.logger.Warn("place search failed, returning empty list",
			"destination", destination,
			"category", category,
			"error", err)
		return []domain.Place{}, nil
	}
	s.metrics.PlaceSearches.WithLabelValues("ok").Inc()
	return places, nil
}

// Discover resolves destination, searches every category around it, and
// returns the ranked result. A failed category search yields an empty
// list for that category only; a geocoding failure aborts the whole
// request since no category has a center point without it.
func (s *Service) Discover(ctx context.Context, destination string, categories []string, radiusMeters int, rctx domain.RankingContext) ([]domain.ScoredPlace, error) {
	if err := domain.ValidateContext(rctx); err != nil {
		return nil, err
	}

	center, err := s.geocoder.Geocode(ctx, destination)
	if err != nil {
		return nil, fmt.Errorf("resolve destination: %w", err)
	}

	var candidates []domain.Place
	for i, category := range categories {
		if i > 0 {
			// Every gap between category searches gets the full pacing
			// delay, even right after process start or an idle period.
			if err := s.sleep(ctx, s.categoryInterval); err != nil {
				return nil, err
			}
		}

		places, err := s.places.Search(ctx, center.Coordinates(), category, radiusMeters)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.metrics.PlaceSearches.WithLabelValues("error").Inc()
			s.logger.Warn("category search failed, continuing",
				"destination", destination,
				"category", category,
				"error", err)
			continue
		}
		s.metrics.PlaceSearches.WithLabelValues("ok").Inc()
		candidates = append(candidates, places...)
	}

	ranked, err := domain.Rank(candidates, rctx)
	if err != nil {
		return nil, err
	}

	s.metrics.DiscoveryRuns.Inc()
	s.metrics.PlacesReturned.Observe(float64(len(ranked)))
	s.publish(ctx, domain.DiscoveryEvent{
		Kind:        domain.EventDiscoveryCompleted,
		Destination: destination,
		Categories:  categories,
		PlaceCount:  len(ranked),
	})

	return ranked, nil
}

// CheckReadiness reports whether the service can serve discovery
// requests.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if s.geocoder == nil || s.places == nil {
		return errors.New("discovery service not fully wired")
	}
	return nil
}

// sleep waits d on the injected clock, returning early when ctx is
// cancelled. Non-positive d is a no-op.
func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-s.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) publish(ctx context.Context, event domain.DiscoveryEvent) {
	if s.events == nil {
		return
	}
	event.OccurredAt = s.clock.Now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "kind", event.Kind, "error", err)
		return
	}
	s.metrics.EventsPublished.Inc()
}
