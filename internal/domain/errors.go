package domain

import (
	"errors"
	"fmt"
)

// ErrNoResults indicates a provider returned zero usable candidates.
var ErrNoResults = errors.New("no results")

// GeocodingError reports that both the primary and the
// simplified-address geocoding attempts were exhausted. It carries the
// original query so callers can substitute a fallback coordinate.
type GeocodingError struct {
	Query string
	Err   error
}

func (e *GeocodingError) Error() string {
	return fmt.Sprintf("geocoding %q: %v", e.Query, e.Err)
}

func (e *GeocodingError) Unwrap() error { return e.Err }

// RankingInputError reports a malformed RankingContext. Rejected
// eagerly before scoring; context fields are never silently coerced.
type RankingInputError struct {
	Field string
	Value string
}

func (e *RankingInputError) Error() string {
	return fmt.Sprintf("ranking context: invalid %s %q", e.Field, e.Value)
}
