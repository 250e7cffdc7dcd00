package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rso-api/internal/models"
	"github.com/noah-isme/rso-api/internal/scoring"
)

func TestDenseSharesPlacesOnTies(t *testing.T) {
	places := Dense(map[string]float64{"A": 10, "B": 10, "C": 5}, true)
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 2}, places)
}

func TestDenseLowerIsBetter(t *testing.T) {
	places := Dense(map[string]float64{"A": 3, "B": 1, "C": 3, "D": 7}, false)
	assert.Equal(t, map[string]int{"B": 1, "A": 2, "C": 2, "D": 3}, places)
}

func TestDenseIsIdempotent(t *testing.T) {
	scores := map[string]float64{"u1": 4.5, "u2": 4.5, "u3": 9, "u4": 0, "u5": 4.5}
	first := Dense(scores, true)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Dense(scores, true))
	}
	assert.Equal(t, 1, first["u3"])
	assert.Equal(t, 2, first["u1"])
	assert.Equal(t, 3, first["u4"])
}

func TestDenseEmpty(t *testing.T) {
	assert.Empty(t, Dense(nil, true))
}

func TestSumScoresAcrossVariants(t *testing.T) {
	total := SumScores(
		map[string]float64{"A": 3, "B": 2},
		map[string]float64{"A": 1, "C": 6},
		nil,
	)
	assert.Equal(t, map[string]float64{"A": 4, "B": 2, "C": 6}, total)
}

func TestCompositeRanksBeforeAveraging(t *testing.T) {
	coeffs := map[string]scoring.Coefficients{
		// K1 places: A1 B2 C3; K2: A3 B1 C2; K3: A3 B1 C2
		"A": {100, 0.1, 0.05},
		"B": {50, 0.5, 0.30},
		"C": {10, 0.2, 0.10},
	}
	places := Composite(coeffs)
	// averages: A 7/3, B 4/3, C 7/3
	assert.Equal(t, map[string]int{"B": 1, "A": 2, "C": 2}, places)
}

func TestAggregateSumsPlacesTreatingMissingAsZero(t *testing.T) {
	entries := []models.RankingEntry{
		{ParticipantID: "X", Places: models.Places{"1": 1, "2": 3, "4": 2}},
		{ParticipantID: "Y", Places: models.Places{"1": 2, "2": 1, "4": 1, "7": 1}},
		{ParticipantID: "Z", Places: models.Places{"1": 3, "2": 2}},
	}
	core := map[string]bool{"1": true, "4": true}

	Aggregate(entries, core)

	assert.Equal(t, 6, entries[0].SumOfPlaces)
	assert.Equal(t, 5, entries[1].SumOfPlaces)
	assert.Equal(t, 5, entries[2].SumOfPlaces)
	assert.Equal(t, 2, entries[0].OverallPlace)
	assert.Equal(t, 1, entries[1].OverallPlace)
	assert.Equal(t, 1, entries[2].OverallPlace)

	assert.Equal(t, 3, entries[0].CoreSumOfPlaces)
	assert.Equal(t, 3, entries[1].CoreSumOfPlaces)
	assert.Equal(t, 3, entries[2].CoreSumOfPlaces)
	assert.Equal(t, 1, entries[0].CorePlace)
}
