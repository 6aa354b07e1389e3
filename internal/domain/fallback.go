package domain

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

// maxJitterDegrees bounds the random offset applied to fallback
// coordinates so unresolved markers in the same city do not overlap.
const maxJitterDegrees = 0.01

type fallbackCity struct {
	match string
	coord Coordinates
}

// fallbackCities is matched in order against the lower-cased
// destination text; the first substring hit wins, so more specific
// names precede the cities that contain them.
var fallbackCities = []fallbackCity{
	{"paris", Coordinates{48.8566, 2.3522}},
	{"london", Coordinates{51.5074, -0.1278}},
	{"rome", Coordinates{41.9028, 12.4964}},
	{"roma", Coordinates{41.9028, 12.4964}},
	{"milano", Coordinates{45.4642, 9.1900}},
	{"milan", Coordinates{45.4642, 9.1900}},
	{"florence", Coordinates{43.7696, 11.2558}},
	{"venice", Coordinates{45.4408, 12.3155}},
	{"naples", Coordinates{40.8518, 14.2681}},
	{"barcelona", Coordinates{41.3874, 2.1686}},
	{"madrid", Coordinates{40.4168, -3.7038}},
	{"lisbon", Coordinates{38.7223, -9.1393}},
	{"berlin", Coordinates{52.5200, 13.4050}},
	{"munich", Coordinates{48.1351, 11.5820}},
	{"amsterdam", Coordinates{52.3676, 4.9041}},
	{"brussels", Coordinates{50.8503, 4.3517}},
	{"vienna", Coordinates{48.2082, 16.3738}},
	{"prague", Coordinates{50.0755, 14.4378}},
	{"budapest", Coordinates{47.4979, 19.0402}},
	{"athens", Coordinates{37.9838, 23.7275}},
	{"istanbul", Coordinates{41.0082, 28.9784}},
	{"dublin", Coordinates{53.3498, -6.2603}},
	{"edinburgh", Coordinates{55.9533, -3.1883}},
	{"copenhagen", Coordinates{55.6761, 12.5683}},
	{"stockholm", Coordinates{59.3293, 18.0686}},
	{"oslo", Coordinates{59.9139, 10.7522}},
	{"reykjavik", Coordinates{64.1466, -21.9426}},
	{"new york", Coordinates{40.7128, -74.0060}},
	{"san francisco", Coordinates{37.7749, -122.4194}},
	{"los angeles", Coordinates{34.0522, -118.2437}},
	{"chicago", Coordinates{41.8781, -87.6298}},
	{"miami", Coordinates{25.7617, -80.1918}},
	{"toronto", Coordinates{43.6532, -79.3832}},
	{"mexico city", Coordinates{19.4326, -99.1332}},
	{"rio de janeiro", Coordinates{-22.9068, -43.1729}},
	{"buenos aires", Coordinates{-34.6037, -58.3816}},
	{"cairo", Coordinates{30.0444, 31.2357}},
	{"marrakech", Coordinates{31.6295, -7.9811}},
	{"cape town", Coordinates{-33.9249, 18.4241}},
	{"dubai", Coordinates{25.2048, 55.2708}},
	{"tokyo", Coordinates{35.6762, 139.6503}},
	{"kyoto", Coordinates{35.0116, 135.7681}},
	{"seoul", Coordinates{37.5665, 126.9780}},
	{"hong kong", Coordinates{22.3193, 114.1694}},
	{"singapore", Coordinates{1.3521, 103.8198}},
	{"bangkok", Coordinates{13.7563, 100.5018}},
	{"bali", Coordinates{-8.3405, 115.0920}},
	{"sydney", Coordinates{-33.8688, 151.2093}},
	{"auckland", Coordinates{-36.8509, 174.7645}},
}

// defaultFallback is returned when no city matches: Paris, the
// application's default map center.
var defaultFallback = Coordinates{48.8566, 2.3522}

// cityCandidate pulls a probable city name out of free-form
// destination text such as "trip to Rome for 5 days".
var cityCandidate = regexp.MustCompile(`(?:trip to|to|in|for)\s+([a-z][a-z\s\-]*)`)

// FallbackCoordinates maps a destination string to an approximate
// coordinate without any network call. The coordinate is jittered by
// at most ±0.01° per axis.
func FallbackCoordinates(destination string) Coordinates {
	text := strings.ToLower(strings.TrimSpace(destination))

	if c, ok := matchCity(text); ok {
		return jitter(c)
	}

	// The raw text did not contain a whole known city name; pull the
	// fragment the loose pattern extracts and accept it as a prefix of
	// a known city, so truncated input like "flight to sing" still
	// lands near Singapore.
	if m := cityCandidate.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(strings.SplitN(m[1], ",", 2)[0])
		if c, ok := matchCityPrefix(candidate); ok {
			return jitter(c)
		}
	}

	return jitter(defaultFallback)
}

func matchCity(text string) (Coordinates, bool) {
	if text == "" {
		return Coordinates{}, false
	}
	for _, city := range fallbackCities {
		if strings.Contains(text, city.match) {
			return city.coord, true
		}
	}
	return Coordinates{}, false
}

// matchCityPrefix accepts a candidate that is a leading fragment of a
// known city name. Fragments shorter than three characters are too
// ambiguous to trust.
func matchCityPrefix(candidate string) (Coordinates, bool) {
	if len(candidate) < 3 {
		return Coordinates{}, false
	}
	for _, city := range fallbackCities {
		if strings.HasPrefix(city.match, candidate) {
			return city.coord, true
		}
	}
	return Coordinates{}, false
}

func jitter(c Coordinates) Coordinates {
	return Coordinates{
		Lat: c.Lat + (rand.Float64()*2-1)*maxJitterDegrees,
		Lng: c.Lng + (rand.Float64()*2-1)*maxJitterDegrees,
	}
}
