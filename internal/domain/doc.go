// Package domain models points of interest discovered from free
// OpenStreetMap services and the scoring used to rank them for
// itinerary construction.
//
// # Data Sources
//
// Coordinates come from the Nominatim search API, which returns
// latitude/longitude as strings; POIs come from the Overpass API,
// which returns nodes, ways, and relations carrying free-form
// key/value tags. Both services are free-tier and rate-limited, so
// every outbound call is serialized through the request scheduler.
//
// # Tag Conventions
//
// Semantic categories map to OSM tag filters:
//
//	restaurant → amenity=restaurant
//	museum     → tourism=museum
//	park       → leisure=park
//	(unknown)  → tourism=attraction
//
// OSM carries no rating, review count, or price data. When a POI
// lacks them, deterministic plausible values derived from the element
// ID are substituted and the place is marked Source
// "overpass/estimated" so consumers can treat them as low-confidence.
//
// # Scoring
//
// A place's score is the sum of independent factors on a nominal
// 100-point scale:
//
//	rating      rating × 8                       (max 40)
//	credibility min(reviews/100, 1) × 10         (max 10)
//	price       15 if price level fits the budget tier, else 0
//	distance    max(0, 10 − km/5), neutral 5 without a reference point
//	interest    15 ÷ |interests| per matched interest (max 15)
//	uniqueness  5 unless already visited
//	operational 5 if the place is known to be open
//
// Places scoring 30 or below are dropped as a minimum-quality gate.
// Ties keep their input order so ranking stays deterministic.
//
// # Fallback Coordinates
//
// When live geocoding fails, a static ordered table of major cities
// supplies an approximate coordinate (Paris when nothing matches),
// jittered by up to ±0.01° so unresolved markers do not overlap.
package domain
