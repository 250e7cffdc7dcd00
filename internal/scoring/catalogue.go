package scoring

import (
	"sort"
	"strconv"

	appErrors "github.com/noah-isme/rso-api/pkg/errors"
)

// Kind selects the formula used to score a report.
type Kind string

const (
	KindRawValue         Kind = "raw_value"
	KindSumParticipants  Kind = "sum_participants"
	KindPlacementInverse Kind = "placement_inverse"
	KindDurationWeighted Kind = "duration_weighted"
	KindOccurrence       Kind = "occurrence"
	KindRatio            Kind = "ratio"
	KindEventCount       Kind = "event_count"
	KindAmount           Kind = "amount"
	KindComposite        Kind = "composite"
)

// InterregionalDiscount scales duration-weighted events held across regions.
const InterregionalDiscount = 0.8

// EventsField is the reason key used to point at a report's sub-events.
const EventsField = "events"

// Metric describes one competition metric variant. Several variants may share a Number;
// their scores are summed per entrant before ranking.
type Metric struct {
	Key            string
	Number         int
	Name           string
	Kind           Kind
	Field          string
	RefMetric      string
	Fields         []string
	HigherIsBetter bool
	Core           bool
	CutoffAware    bool
}

// NumberKey is the metric number as used in ranking places.
func (m Metric) NumberKey() string {
	return strconv.Itoa(m.Number)
}

// AllowsReasonKey reports whether a rejection reason may reference the given field.
func (m Metric) AllowsReasonKey(key string) bool {
	if key == EventsField {
		return true
	}
	for _, f := range m.Fields {
		if f == key {
			return true
		}
	}
	return false
}

var catalogue = []Metric{
	{Key: "1", Number: 1, Name: "Detachment headcount", Kind: KindRawValue, Field: "members", Fields: []string{"members"}, HigherIsBetter: true, Core: true, CutoffAware: true},
	{Key: "2", Number: 2, Name: "Trained commanders share", Kind: KindRatio, Field: "trained_commanders", RefMetric: "1", Fields: []string{"trained_commanders"}, HigherIsBetter: true, Core: true},
	{Key: "3", Number: 3, Name: "Dues-paying members share", Kind: KindRatio, Field: "paying_members", RefMetric: "1", Fields: []string{"paying_members"}, HigherIsBetter: true},
	{Key: "4", Number: 4, Name: "All-Russian events participation", Kind: KindDurationWeighted, HigherIsBetter: true, Core: true, CutoffAware: true},
	{Key: "5", Number: 5, Name: "District events participation", Kind: KindDurationWeighted, HigherIsBetter: true, CutoffAware: true},
	{Key: "6", Number: 6, Name: "Membership dues paid", Kind: KindAmount, HigherIsBetter: true},
	{Key: "7", Number: 7, Name: "Volunteer actions", Kind: KindSumParticipants, HigherIsBetter: true, Core: true},
	{Key: "8", Number: 8, Name: "Patriotic actions", Kind: KindSumParticipants, HigherIsBetter: true},
	{Key: "9.1", Number: 9, Name: "Professional skills contests", Kind: KindPlacementInverse, HigherIsBetter: true},
	{Key: "9.2", Number: 9, Name: "Sports contests", Kind: KindPlacementInverse, HigherIsBetter: true},
	{Key: "9.3", Number: 9, Name: "Creative contests", Kind: KindPlacementInverse, HigherIsBetter: true},
	{Key: "10.1", Number: 10, Name: "Labour project held", Kind: KindOccurrence, Fields: []string{"event_happened"}, HigherIsBetter: true},
	{Key: "10.2", Number: 10, Name: "Open day held", Kind: KindOccurrence, Fields: []string{"event_happened"}, HigherIsBetter: true},
	{Key: "11", Number: 11, Name: "Olympiad prizes", Kind: KindPlacementInverse, HigherIsBetter: true},
	{Key: "12", Number: 12, Name: "Work season efficiency", Kind: KindComposite, Fields: []string{"members", "trained", "awarded"}, HigherIsBetter: true, Core: true, CutoffAware: true},
	{Key: "13", Number: 13, Name: "Media publications per member", Kind: KindRatio, Field: "publications", RefMetric: "1", Fields: []string{"publications"}, HigherIsBetter: true},
	{Key: "14", Number: 14, Name: "Inter-regional labour projects", Kind: KindDurationWeighted, HigherIsBetter: true},
	{Key: "15", Number: 15, Name: "Charity events", Kind: KindSumParticipants, HigherIsBetter: true},
	{Key: "16", Number: 16, Name: "Events organised", Kind: KindEventCount, HigherIsBetter: true},
	{Key: "17", Number: 17, Name: "Funds raised", Kind: KindAmount, HigherIsBetter: true},
	{Key: "18", Number: 18, Name: "Safety briefings", Kind: KindRawValue, Field: "briefings", Fields: []string{"briefings"}, HigherIsBetter: true},
	{Key: "19", Number: 19, Name: "Alumni engagement", Kind: KindRawValue, Field: "alumni", Fields: []string{"alumni"}, HigherIsBetter: true},
	{Key: "20", Number: 20, Name: "Safety violations", Kind: KindRawValue, Field: "violations", Fields: []string{"violations"}, HigherIsBetter: false},
}

var byKey = func() map[string]Metric {
	out := make(map[string]Metric, len(catalogue))
	for _, m := range catalogue {
		out[m.Key] = m
	}
	return out
}()

// Lookup returns the metric registered under key.
func Lookup(key string) (Metric, error) {
	m, ok := byKey[key]
	if !ok {
		return Metric{}, appErrors.Clone(appErrors.ErrUnknownMetric, "unknown competition metric: "+key)
	}
	return m, nil
}

// Variants returns every metric variant sharing the metric number.
func Variants(number int) []Metric {
	var out []Metric
	for _, m := range catalogue {
		if m.Number == number {
			out = append(out, m)
		}
	}
	return out
}

// Numbers returns the distinct metric numbers in ascending order.
func Numbers() []int {
	seen := map[int]struct{}{}
	var out []int
	for _, m := range catalogue {
		if _, ok := seen[m.Number]; ok {
			continue
		}
		seen[m.Number] = struct{}{}
		out = append(out, m.Number)
	}
	sort.Ints(out)
	return out
}

// Dependents returns the ratio metrics that divide by the score of the metric under key.
func Dependents(key string) []Metric {
	var out []Metric
	for _, m := range catalogue {
		if m.RefMetric == key {
			out = append(out, m)
		}
	}
	return out
}

// CoreNumbers returns the metric numbers contributing to the core (K) place.
func CoreNumbers() map[string]bool {
	out := map[string]bool{}
	for _, m := range catalogue {
		if m.Core {
			out[m.NumberKey()] = true
		}
	}
	return out
}

// All returns a copy of the catalogue.
func All() []Metric {
	out := make([]Metric, len(catalogue))
	copy(out, catalogue)
	return out
}
