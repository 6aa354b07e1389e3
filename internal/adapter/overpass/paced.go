package overpass

import (
	"context"

	"github.com/wanderplan/places-discovery/internal/domain"
)

// Pacer serializes outbound provider calls.
type Pacer interface {
	Do(ctx context.Context, fn func(context.Context) error) error
}

// Searcher is the provider-facing query surface.
type Searcher interface {
	Search(ctx context.Context, center domain.Coordinates, category string, radiusMeters int) ([]domain.Place, error)
}

// PacedSearcher routes every search through a pacer so Overpass calls
// share the same rate budget as geocoding.
type PacedSearcher struct {
	inner Searcher
	pacer Pacer
}

// NewPacedSearcher wraps a searcher with pacing.
func NewPacedSearcher(inner Searcher, pacer Pacer) *PacedSearcher {
	return &PacedSearcher{inner: inner, pacer: pacer}
}

func (p *PacedSearcher) Search(ctx context.Context, center domain.Coordinates, category string, radiusMeters int) ([]domain.Place, error) {
	var places []domain.Place
	err := p.pacer.Do(ctx, func(ctx context.Context) error {
		var searchErr error
		places, searchErr = p.inner.Search(ctx, center, category, radiusMeters)
		return searchErr
	})
	return places, err
}
