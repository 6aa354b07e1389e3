package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() RankingContext {
	return RankingContext{
		BudgetTier: BudgetTierModerate,
		TimeSlot:   TimeSlotAny,
	}
}

func operationalPlace(id string) Place {
	return Place{
		ProviderID:     id,
		Name:           "Place " + id,
		Coordinates:    Coordinates{45.4642, 9.1900},
		Rating:         4.5,
		PriceLevel:     2,
		ReviewCount:    200,
		Types:          []string{"restaurant"},
		BusinessStatus: BusinessOperational,
		Category:       "restaurant",
		Source:         "overpass",
	}
}

func TestRank_FactorBreakdown(t *testing.T) {
	p := operationalPlace("node/1")
	rc := testContext()
	rc.Interests = []string{"food"}
	rc.CurrentLocation = &Coordinates{45.4642, 9.1900}

	scored, err := Rank([]Place{p}, rc)
	require.NoError(t, err)
	require.Len(t, scored, 1)

	want := map[string]float64{
		"rating":      36, // 4.5 * 8
		"credibility": 10, // capped at 100 reviews
		"price":       15, // level 2 fits moderate
		"distance":    10, // zero distance
		"interest":    15, // single interest, matched
		"uniqueness":  5,
		"operational": 5,
	}
	if diff := cmp.Diff(want, scored[0].Factors); diff != "" {
		t.Errorf("factors mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 96, scored[0].Score, 1e-9)
}

func TestRank_DistanceFactor(t *testing.T) {
	p := operationalPlace("node/1")
	rc := testContext()

	// Same point: full 10.
	rc.CurrentLocation = &Coordinates{p.Coordinates.Lat, p.Coordinates.Lng}
	scored, err := Rank([]Place{p}, rc)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.InDelta(t, 10, scored[0].Factors["distance"], 1e-9)

	// ≥50km away: 0.
	rc.CurrentLocation = &Coordinates{p.Coordinates.Lat + 1, p.Coordinates.Lng} // ~111km north
	scored, err = Rank([]Place{p}, rc)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, float64(0), scored[0].Factors["distance"])

	// No reference point: neutral 5.
	rc.CurrentLocation = nil
	scored, err = Rank([]Place{p}, rc)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, float64(5), scored[0].Factors["distance"])
}

func TestRank_BudgetTiers(t *testing.T) {
	cases := []struct {
		tier       BudgetTier
		priceLevel int
		want       float64
	}{
		{BudgetTierBudget, 0, 15},
		{BudgetTierBudget, 1, 15},
		{BudgetTierBudget, 2, 0},
		{BudgetTierModerate, 1, 15},
		{BudgetTierModerate, 3, 15},
		{BudgetTierModerate, 4, 0},
		{BudgetTierLuxury, 3, 15},
		{BudgetTierLuxury, 4, 15},
		{BudgetTierLuxury, 1, 0},
	}

	for _, tc := range cases {
		p := operationalPlace("node/1")
		p.PriceLevel = tc.priceLevel
		rc := testContext()
		rc.BudgetTier = tc.tier

		scored, err := Rank([]Place{p}, rc)
		require.NoError(t, err)
		require.Len(t, scored, 1)
		assert.Equal(t, tc.want, scored[0].Factors["price"],
			"tier %s, price level %d", tc.tier, tc.priceLevel)
	}
}

func TestRank_InterestMatchSplitsAcrossInterests(t *testing.T) {
	p := operationalPlace("node/1")
	p.Types = []string{"museum", "restaurant"}

	rc := testContext()
	rc.Interests = []string{"museums", "food", "nightlife"}

	scored, err := Rank([]Place{p}, rc)
	require.NoError(t, err)
	require.Len(t, scored, 1)

	// Matches museums and food but not nightlife: 2 × (15/3).
	assert.InDelta(t, 10, scored[0].Factors["interest"], 1e-9)
}

func TestRank_UnknownInterestContributesNothing(t *testing.T) {
	p := operationalPlace("node/1")
	rc := testContext()
	rc.Interests = []string{"spelunking"}

	scored, err := Rank([]Place{p}, rc)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, float64(0), scored[0].Factors["interest"])
}

func TestRank_VisitedPlaceLosesUniqueness(t *testing.T) {
	p := operationalPlace("node/1")
	rc := testContext()
	rc.VisitedProviderIDs = []string{"node/1"}

	scored, err := Rank([]Place{p}, rc)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, float64(0), scored[0].Factors["uniqueness"])
}

func TestRank_DropsLowScores(t *testing.T) {
	weak := Place{
		ProviderID:     "node/2",
		Name:           "Unrated",
		Rating:         0,
		PriceLevel:     4, // outside moderate
		BusinessStatus: BusinessUnknown,
	}
	strong := operationalPlace("node/1")

	scored, err := Rank([]Place{weak, strong}, testContext())
	require.NoError(t, err)

	// weak scores 0+0+0+5+0+5+0 = 10 ≤ 30 and is dropped.
	require.Len(t, scored, 1)
	assert.Equal(t, "node/1", scored[0].ProviderID)
	assert.Greater(t, scored[0].Score, float64(30))
}

func TestRank_SortedDescendingStable(t *testing.T) {
	high := operationalPlace("node/1")
	low := operationalPlace("node/2")
	low.Rating = 3.5
	tiedA := operationalPlace("node/3")
	tiedB := operationalPlace("node/4")

	scored, err := Rank([]Place{low, tiedA, high, tiedB}, testContext())
	require.NoError(t, err)
	require.Len(t, scored, 4)

	for i := 1; i < len(scored); i++ {
		assert.GreaterOrEqual(t, scored[i-1].Score, scored[i].Score)
	}
	// node/1, node/3, node/4 tie; input order must be preserved.
	assert.Equal(t, "node/1", scored[0].ProviderID)
	assert.Equal(t, "node/3", scored[1].ProviderID)
	assert.Equal(t, "node/4", scored[2].ProviderID)
	assert.Equal(t, "node/2", scored[3].ProviderID)
}

func TestRank_Deterministic(t *testing.T) {
	places := []Place{operationalPlace("node/1"), operationalPlace("node/2")}
	rc := testContext()
	rc.Interests = []string{"food"}
	rc.CurrentLocation = &Coordinates{45.46, 9.19}

	first, err := Rank(places, rc)
	require.NoError(t, err)
	second, err := Rank(places, rc)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("rank output not deterministic (-first +second):\n%s", diff)
	}
}

func TestRank_RejectsUnknownBudgetTier(t *testing.T) {
	rc := testContext()
	rc.BudgetTier = "extravagant"

	_, err := Rank([]Place{operationalPlace("node/1")}, rc)
	var rankErr *RankingInputError
	require.ErrorAs(t, err, &rankErr)
	assert.Equal(t, "budgetTier", rankErr.Field)
}

func TestRank_RejectsUnknownTimeSlot(t *testing.T) {
	rc := testContext()
	rc.TimeSlot = "midnight"

	_, err := Rank(nil, rc)
	var rankErr *RankingInputError
	require.ErrorAs(t, err, &rankErr)
	assert.Equal(t, "timeSlot", rankErr.Field)
}

func TestRank_RejectsOutOfRangeLocation(t *testing.T) {
	rc := testContext()
	rc.CurrentLocation = &Coordinates{Lat: 120, Lng: 0}

	_, err := Rank(nil, rc)
	var rankErr *RankingInputError
	require.ErrorAs(t, err, &rankErr)
	assert.Equal(t, "currentLocation", rankErr.Field)
}
