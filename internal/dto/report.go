package dto

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/rso-api/internal/models"
)

// ReportEventInput describes one sub-event submitted with a report. Events start unverified;
// only district approval verifies them.
type ReportEventInput struct {
	Name            string          `json:"name" validate:"max=255"`
	Participants    int             `json:"participants" validate:"min=0"`
	StartDate       *time.Time      `json:"start_date"`
	EndDate         *time.Time      `json:"end_date"`
	IsInterregional bool            `json:"is_interregional"`
	PrizePlace      *int            `json:"prize_place" validate:"omitempty,min=1,max=3"`
	EventHappened   bool            `json:"event_happened"`
	Amount          decimal.Decimal `json:"amount"`
	Link            *string         `json:"link" validate:"omitempty,url"`
}

// Model converts the input into a report event.
func (e ReportEventInput) Model() models.ReportEvent {
	return models.ReportEvent{
		Name:            e.Name,
		Participants:    e.Participants,
		StartDate:       e.StartDate,
		EndDate:         e.EndDate,
		IsInterregional: e.IsInterregional,
		PrizePlace:      e.PrizePlace,
		EventHappened:   e.EventHappened,
		Amount:          e.Amount,
		Link:            e.Link,
	}
}

// EventModels converts a list of event inputs.
func EventModels(inputs []ReportEventInput) []models.ReportEvent {
	out := make([]models.ReportEvent, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, in.Model())
	}
	return out
}

// CreateReportRequest captures POST /reports payload.
type CreateReportRequest struct {
	ParticipantID string             `json:"participant_id" validate:"required"`
	MetricKey     string             `json:"metric_key" validate:"required"`
	Fields        types.JSONText     `json:"fields"`
	Events        []ReportEventInput `json:"events" validate:"omitempty,dive"`
}

// UpdateReportRequest replaces the editable content of a draft or rejected report.
type UpdateReportRequest struct {
	Fields types.JSONText     `json:"fields"`
	Events []ReportEventInput `json:"events" validate:"omitempty,dive"`
}

// DistrictReviewRequest approves a sent report, optionally with edits, or rejects it.
// ExcludedEvents lists the positions of events the district could not confirm.
type DistrictReviewRequest struct {
	Approve        bool               `json:"approve"`
	Fields         types.JSONText     `json:"fields,omitempty"`
	Events         []ReportEventInput `json:"events,omitempty" validate:"omitempty,dive"`
	ExcludedEvents []int              `json:"excluded_events,omitempty" validate:"omitempty,dive,min=0"`
	Reasons        map[string]string  `json:"reasons,omitempty"`
}

// RejectReportRequest carries rejection reasons keyed by field name or "events".
type RejectReportRequest struct {
	Reasons map[string]string `json:"reasons"`
}

// ReportReviewResponse is returned after a review transition.
type ReportReviewResponse struct {
	Report  *models.Report `json:"report"`
	Scoring *ScoreOutcome  `json:"scoring,omitempty"`
}
