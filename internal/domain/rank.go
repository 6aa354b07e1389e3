package domain

import (
	"math"
	"sort"
)

// minScore is the minimum-quality gate; places scoring at or below it
// are dropped from the ranked output.
const minScore = 30

// budgetPriceLevels maps each tier to the price levels it accepts.
var budgetPriceLevels = map[BudgetTier]map[int]bool{
	BudgetTierBudget:   {0: true, 1: true},
	BudgetTierModerate: {1: true, 2: true, 3: true},
	BudgetTierLuxury:   {3: true, 4: true},
}

// interestTypes maps user interests to the OSM place types that
// satisfy them. An unrecognized interest contributes nothing.
var interestTypes = map[string][]string{
	"museums":   {"museum", "gallery", "art_gallery", "library"},
	"food":      {"restaurant", "cafe", "bakery", "fast_food", "food_court", "marketplace"},
	"nightlife": {"bar", "pub", "nightclub", "biergarten"},
	"nature":    {"park", "garden", "nature_reserve", "viewpoint", "beach"},
	"history":   {"castle", "monument", "memorial", "ruins", "archaeological_site", "museum"},
	"art":       {"gallery", "art_gallery", "artwork", "theatre"},
	"shopping":  {"mall", "marketplace", "department_store", "supermarket", "boutique"},
	"religion":  {"place_of_worship", "church", "cathedral", "monastery"},
	"sports":    {"stadium", "sports_centre", "swimming_pool", "fitness_centre"},
	"family":    {"zoo", "aquarium", "theme_park", "playground", "park"},
}

// ValidateContext rejects a malformed RankingContext before scoring.
func ValidateContext(rc RankingContext) error {
	switch rc.BudgetTier {
	case BudgetTierBudget, BudgetTierModerate, BudgetTierLuxury:
	default:
		return &RankingInputError{Field: "budgetTier", Value: string(rc.BudgetTier)}
	}
	switch rc.TimeSlot {
	case TimeSlotMorning, TimeSlotAfternoon, TimeSlotEvening, TimeSlotAny:
	default:
		return &RankingInputError{Field: "timeSlot", Value: string(rc.TimeSlot)}
	}
	if loc := rc.CurrentLocation; loc != nil {
		if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
			return &RankingInputError{Field: "currentLocation", Value: "out of range"}
		}
	}
	return nil
}

// Rank scores places against the ranking context, drops those at or
// below the quality gate, and returns the rest in descending score
// order. Pure computation: no I/O, no randomness, ties keep their
// input order.
func Rank(places []Place, rc RankingContext) ([]ScoredPlace, error) {
	if err := ValidateContext(rc); err != nil {
		return nil, err
	}

	visited := make(map[string]bool, len(rc.VisitedProviderIDs))
	for _, id := range rc.VisitedProviderIDs {
		visited[id] = true
	}

	scored := make([]ScoredPlace, 0, len(places))
	for _, p := range places {
		factors := scoreFactors(p, rc, visited)

		var total float64
		for _, v := range factors {
			total += v
		}
		if total <= minScore {
			continue
		}

		scored = append(scored, ScoredPlace{Place: p, Score: total, Factors: factors})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored, nil
}

func scoreFactors(p Place, rc RankingContext, visited map[string]bool) map[string]float64 {
	factors := map[string]float64{
		"rating":      p.Rating * 8,
		"credibility": math.Min(float64(p.ReviewCount)/100, 1) * 10,
		"price":       0,
		"distance":    5,
		"interest":    0,
		"uniqueness":  5,
		"operational": 0,
	}

	if budgetPriceLevels[rc.BudgetTier][p.PriceLevel] {
		factors["price"] = 15
	}

	if rc.CurrentLocation != nil {
		km := HaversineKm(*rc.CurrentLocation, p.Coordinates)
		factors["distance"] = math.Max(0, 10-km/5)
	}

	if len(rc.Interests) > 0 {
		perInterest := 15 / float64(len(rc.Interests))
		for _, interest := range rc.Interests {
			if matchesInterest(p.Types, interestTypes[interest]) {
				factors["interest"] += perInterest
			}
		}
	}

	if visited[p.ProviderID] {
		factors["uniqueness"] = 0
	}

	if p.BusinessStatus == BusinessOperational {
		factors["operational"] = 5
	}

	return factors
}

func matchesInterest(placeTypes, wanted []string) bool {
	for _, pt := range placeTypes {
		for _, w := range wanted {
			if pt == w {
				return true
			}
		}
	}
	return false
}
