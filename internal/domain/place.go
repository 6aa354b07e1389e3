package domain

import (
	"context"
	"time"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a geographic bounding box.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// GeocodeResult is an immutable resolved location. Latitude is within
// [-90, 90] and longitude within [-180, 180]; candidates outside those
// ranges are discarded during parsing.
type GeocodeResult struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress"`
	ProviderID       string  `json:"providerId"`
	Name             string  `json:"name"`
	Bounds           *Bounds `json:"bounds,omitempty"`
}

// Coordinates returns the result's coordinate pair.
func (g GeocodeResult) Coordinates() Coordinates {
	return Coordinates{Lat: g.Latitude, Lng: g.Longitude}
}

// BusinessStatus indicates whether a place is known to be open.
type BusinessStatus string

const (
	BusinessOperational BusinessStatus = "OPERATIONAL"
	BusinessClosed      BusinessStatus = "CLOSED"
	BusinessUnknown     BusinessStatus = "UNKNOWN"
)

// Place is a normalized point of interest from a provider. Created
// fresh per search call; this subsystem does not persist places.
type Place struct {
	ProviderID       string         `json:"providerId"`
	Name             string         `json:"name"`
	FormattedAddress string         `json:"formattedAddress"`
	Coordinates      Coordinates    `json:"coordinates"`
	Rating           float64        `json:"rating"`               // 0–5
	PriceLevel       int            `json:"priceLevel"`           // 0–4
	ReviewCount      int            `json:"reviewCount"`          // 0 when the provider has none
	Types            []string       `json:"types"`
	OpeningHours     string         `json:"openingHours,omitempty"`
	BusinessStatus   BusinessStatus `json:"businessStatus"`
	Category         string         `json:"category"`
	Description      string         `json:"description,omitempty"`
	Source           string         `json:"source"`
}

// ScoredPlace is a Place with its ranking score and the per-factor
// breakdown retained for explainability. Never mutated after creation;
// re-ranking produces new values.
type ScoredPlace struct {
	Place
	Score   float64            `json:"score"`
	Factors map[string]float64 `json:"factors"`
}

// BudgetTier is a coarse price-sensitivity bucket.
type BudgetTier string

const (
	BudgetTierBudget   BudgetTier = "budget"
	BudgetTierModerate BudgetTier = "moderate"
	BudgetTierLuxury   BudgetTier = "luxury"
)

// TimeSlot is a coarse time-of-day bucket for itinerary placement.
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
	TimeSlotEvening   TimeSlot = "evening"
	TimeSlotAny       TimeSlot = "any"
)

// RankingContext is the read-only trip/user context supplied per
// ranking call.
type RankingContext struct {
	Interests          []string     `json:"interests"`
	BudgetTier         BudgetTier   `json:"budgetTier"`
	CurrentLocation    *Coordinates `json:"currentLocation,omitempty"`
	VisitedProviderIDs []string     `json:"visitedProviderIds"`
	DayTheme           string       `json:"dayTheme,omitempty"`
	TimeSlot           TimeSlot     `json:"timeSlot"`
}

// Geocoder resolves free-text locations to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (GeocodeResult, error)
}

// Telemetry event kinds.
const (
	EventDiscoveryCompleted = "discovery_completed"
	EventGeocodeFallback    = "geocode_fallback"
)

// DiscoveryEvent is the telemetry record published after discovery
// operations.
type DiscoveryEvent struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Destination string    `json:"destination"`
	Categories  []string  `json:"categories,omitempty"`
	PlaceCount  int       `json:"place_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}
