package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/rso-api/internal/models"
)

// Input carries everything a score function may read. Reference is the centrally verified
// score of the metric's RefMetric report for the same entrant, nil when no such report exists.
type Input struct {
	Fields    map[string]interface{}
	Events    []models.ReportEvent
	Reference *float64
}

// Result is the outcome of scoring one report. Warning is set when the score was forced to
// zero because of a missing or zero reference.
type Result struct {
	Score   float64
	Warning string
}

// Coefficients are the three independently ranked inputs of a composite metric.
type Coefficients [3]float64

// NewInput builds an Input from a report and its events.
func NewInput(report *models.Report, reference *float64) Input {
	return Input{Fields: report.FieldMap(), Events: report.Events, Reference: reference}
}

// Compute scores a report for the metric.
func Compute(m Metric, in Input) (Result, error) {
	events := verifiedEvents(in.Events)
	switch m.Kind {
	case KindRawValue:
		return Result{Score: Number(in.Fields[m.Field])}, nil
	case KindSumParticipants:
		return Result{Score: sumParticipants(events)}, nil
	case KindPlacementInverse:
		return Result{Score: placementInverse(events)}, nil
	case KindDurationWeighted:
		return Result{Score: durationWeighted(events)}, nil
	case KindOccurrence:
		return Result{Score: occurrence(in.Fields, events)}, nil
	case KindRatio:
		return ratio(Number(in.Fields[m.Field]), in.Reference), nil
	case KindEventCount:
		return Result{Score: float64(len(events))}, nil
	case KindAmount:
		return Result{Score: amount(events)}, nil
	case KindComposite:
		return Result{Score: Composite(in)[0]}, nil
	}
	return Result{}, fmt.Errorf("metric %s: unsupported kind %q", m.Key, m.Kind)
}

// Composite returns K1 (total participants), K2 (trained per member) and K3 (awarded per
// member). Ratios with no members are zero.
func Composite(in Input) Coefficients {
	events := verifiedEvents(in.Events)
	members := Number(in.Fields["members"])
	var k Coefficients
	k[0] = sumParticipants(events)
	if members > 0 {
		k[1] = Number(in.Fields["trained"]) / members
		k[2] = Number(in.Fields["awarded"]) / members
	}
	return k
}

// EventDays counts calendar days an event spans, inclusive. A missing end date means a
// one-day event; a missing start date or an end before the start counts as zero.
func EventDays(e models.ReportEvent) int {
	if e.StartDate == nil {
		return 0
	}
	if e.EndDate == nil {
		return 1
	}
	days := int(dateOnly(*e.EndDate).Sub(dateOnly(*e.StartDate)).Hours()/24) + 1
	if days < 0 {
		return 0
	}
	return days
}

// Number coerces a JSON scalar into a float. Null, non-numeric and non-finite input is zero.
func Number(v interface{}) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(n, ",", ".")), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func truthy(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return Number(v) != 0
}

func verifiedEvents(events []models.ReportEvent) []models.ReportEvent {
	out := make([]models.ReportEvent, 0, len(events))
	for _, e := range events {
		if e.IsVerified {
			out = append(out, e)
		}
	}
	return out
}

func sumParticipants(events []models.ReportEvent) float64 {
	var total float64
	for _, e := range events {
		if e.Participants > 0 {
			total += float64(e.Participants)
		}
	}
	return total
}

func placementInverse(events []models.ReportEvent) float64 {
	var total float64
	for _, e := range events {
		if e.PrizePlace == nil {
			continue
		}
		if place := *e.PrizePlace; place >= 1 && place <= 3 {
			total += float64(4 - place)
		}
	}
	return total
}

func durationWeighted(events []models.ReportEvent) float64 {
	var total float64
	for _, e := range events {
		if e.Participants <= 0 {
			continue
		}
		weight := float64(e.Participants * EventDays(e))
		if e.IsInterregional {
			weight *= InterregionalDiscount
		}
		total += weight
	}
	return round(total)
}

func occurrence(fields map[string]interface{}, events []models.ReportEvent) float64 {
	if truthy(fields["event_happened"]) {
		return 1
	}
	for _, e := range events {
		if e.EventHappened {
			return 1
		}
	}
	return 0
}

func ratio(x float64, reference *float64) Result {
	if reference == nil {
		return Result{Warning: "reference report missing"}
	}
	if *reference == 0 {
		return Result{Warning: "reference score is zero"}
	}
	return Result{Score: round(x / *reference)}
}

func amount(events []models.ReportEvent) float64 {
	total := decimal.Zero
	for _, e := range events {
		if e.Amount.IsPositive() {
			total = total.Add(e.Amount)
		}
	}
	return total.Round(2).InexactFloat64()
}

// round trims float noise to four decimals so that equal scores compare equal when ranked.
func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
