// Package ranking turns per-entrant scores into competition places.
//
// Places are dense: tied scores share a place and the next distinct score takes the
// immediately following place ({A:10, B:10, C:5} ranks as {A:1, B:1, C:2}).
package ranking

import (
	"sort"

	"github.com/noah-isme/rso-api/internal/models"
	"github.com/noah-isme/rso-api/internal/scoring"
)

// Dense ranks the scores. Entrants with equal scores share a place; ordering inside a tie
// is by ID so repeated runs produce identical maps.
func Dense(scores map[string]float64, higherIsBetter bool) map[string]int {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := scores[ids[i]], scores[ids[j]]
		if a != b {
			if higherIsBetter {
				return a > b
			}
			return a < b
		}
		return ids[i] < ids[j]
	})

	places := make(map[string]int, len(ids))
	place := 0
	var prev float64
	for i, id := range ids {
		if i == 0 || scores[id] != prev {
			place++
			prev = scores[id]
		}
		places[id] = place
	}
	return places
}

// SumScores adds the scores of several metric variants per entrant.
func SumScores(sets ...map[string]float64) map[string]float64 {
	out := map[string]float64{}
	for _, set := range sets {
		for id, score := range set {
			out[id] += score
		}
	}
	return out
}

// Composite ranks each coefficient across entrants (higher is better), averages the three
// places per entrant and ranks the averages ascending.
func Composite(coeffs map[string]scoring.Coefficients) map[string]int {
	if len(coeffs) == 0 {
		return map[string]int{}
	}
	var perCoefficient [3]map[string]int
	for k := 0; k < 3; k++ {
		column := make(map[string]float64, len(coeffs))
		for id, c := range coeffs {
			column[id] = c[k]
		}
		perCoefficient[k] = Dense(column, true)
	}

	averages := make(map[string]float64, len(coeffs))
	for id := range coeffs {
		total := perCoefficient[0][id] + perCoefficient[1][id] + perCoefficient[2][id]
		averages[id] = float64(total) / 3
	}
	return Dense(averages, false)
}

// Aggregate fills SumOfPlaces/OverallPlace and CoreSumOfPlaces/CorePlace for every entry.
// Metrics without a place count as zero. The entries must belong to one ranking pool.
func Aggregate(entries []models.RankingEntry, core map[string]bool) {
	sums := make(map[string]float64, len(entries))
	coreSums := make(map[string]float64, len(entries))
	for i := range entries {
		var sum, coreSum int
		for number, place := range entries[i].Places {
			if place <= 0 {
				continue
			}
			sum += place
			if core[number] {
				coreSum += place
			}
		}
		entries[i].SumOfPlaces = sum
		entries[i].CoreSumOfPlaces = coreSum
		sums[entries[i].ParticipantID] = float64(sum)
		coreSums[entries[i].ParticipantID] = float64(coreSum)
	}

	overall := Dense(sums, false)
	corePlaces := Dense(coreSums, false)
	for i := range entries {
		entries[i].OverallPlace = overall[entries[i].ParticipantID]
		entries[i].CorePlace = corePlaces[entries[i].ParticipantID]
	}
}
