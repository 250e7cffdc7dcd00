package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// ReportStatus captures the verification workflow state of a report.
type ReportStatus string

const (
	ReportStatusDraft            ReportStatus = "draft"
	ReportStatusSent             ReportStatus = "sent"
	ReportStatusDistrictReviewed ReportStatus = "district_reviewed"
	ReportStatusCentralApproved  ReportStatus = "central_approved"
	ReportStatusRejected         ReportStatus = "rejected"
)

// Editable reports whether the submitting commander may still change the report.
func (s ReportStatus) Editable() bool {
	return s == ReportStatusDraft || s == ReportStatusRejected
}

// Report is one metric submission of an entrant.
type Report struct {
	ID                 string         `db:"id" json:"id"`
	CompetitionID      string         `db:"competition_id" json:"competition_id"`
	ParticipantID      string         `db:"participant_id" json:"participant_id"`
	DetachmentID       string         `db:"detachment_id" json:"detachment_id"`
	MetricKey          string         `db:"metric_key" json:"metric_key"`
	Status             ReportStatus   `db:"status" json:"status"`
	Fields             types.JSONText `db:"fields" json:"fields"`
	Score              float64        `db:"score" json:"score"`
	VerifiedByDistrict *bool          `db:"verified_by_district" json:"verified_by_district"`
	VerifiedByCentral  *bool          `db:"verified_by_central" json:"verified_by_central"`
	RejectionReasons   types.JSONText `db:"rejection_reasons" json:"rejection_reasons,omitempty"`
	CreatedBy          string         `db:"created_by" json:"created_by"`
	SentAt             *time.Time     `db:"sent_at" json:"sent_at,omitempty"`
	ApprovedAt         *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`

	Events []ReportEvent `db:"-" json:"events,omitempty"`
}

// CentrallyApproved reports whether the report passed central verification.
func (r *Report) CentrallyApproved() bool {
	return r.VerifiedByCentral != nil && *r.VerifiedByCentral
}

// ApprovedAfter reports whether r was centrally approved later than other. Equal or missing
// approval times fall back to the ID so every reader settles on the same current report.
func (r *Report) ApprovedAfter(other *Report) bool {
	switch {
	case r.ApprovedAt == nil && other.ApprovedAt != nil:
		return false
	case r.ApprovedAt != nil && other.ApprovedAt == nil:
		return true
	case r.ApprovedAt != nil && !r.ApprovedAt.Equal(*other.ApprovedAt):
		return r.ApprovedAt.After(*other.ApprovedAt)
	}
	return r.ID > other.ID
}

// FieldMap decodes the metric-specific fields. Malformed JSON yields an empty map.
func (r *Report) FieldMap() map[string]interface{} {
	out := map[string]interface{}{}
	if len(r.Fields) == 0 {
		return out
	}
	if err := json.Unmarshal(r.Fields, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// ReportEvent is a sub-event attached to a report (an action, a contest, a payment).
type ReportEvent struct {
	ID              string          `db:"id" json:"id"`
	ReportID        string          `db:"report_id" json:"report_id"`
	Name            string          `db:"name" json:"name"`
	Participants    int             `db:"participants" json:"participants"`
	StartDate       *time.Time      `db:"start_date" json:"start_date,omitempty"`
	EndDate         *time.Time      `db:"end_date" json:"end_date,omitempty"`
	IsInterregional bool            `db:"is_interregional" json:"is_interregional"`
	PrizePlace      *int            `db:"prize_place" json:"prize_place,omitempty"`
	EventHappened   bool            `db:"event_happened" json:"event_happened"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Link            *string         `db:"link" json:"link,omitempty"`
	IsVerified      bool            `db:"is_verified" json:"is_verified"`
}

// ReportFilter constrains report listing.
type ReportFilter struct {
	CompetitionID string
	MetricKeys    []string
	ParticipantID string
	Status        []ReportStatus
	OnlyApproved  bool
}

// VerificationLevel identifies who performed a review transition.
type VerificationLevel string

const (
	VerificationLevelCommander VerificationLevel = "commander"
	VerificationLevelDistrict  VerificationLevel = "district"
	VerificationLevelCentral   VerificationLevel = "central"
)

// VerificationAction names a review transition.
type VerificationAction string

const (
	VerificationActionSent     VerificationAction = "sent"
	VerificationActionApproved VerificationAction = "approved"
	VerificationActionRejected VerificationAction = "rejected"
	VerificationActionEdited   VerificationAction = "edited"
)

// VerificationLog is an immutable snapshot of a report taken at a review transition.
type VerificationLog struct {
	ID        string             `db:"id" json:"id"`
	ReportID  string             `db:"report_id" json:"report_id"`
	Level     VerificationLevel  `db:"level" json:"level"`
	Action    VerificationAction `db:"action" json:"action"`
	ActorID   string             `db:"actor_id" json:"actor_id"`
	Snapshot  types.JSONText     `db:"snapshot" json:"snapshot"`
	Reasons   types.JSONText     `db:"reasons" json:"reasons,omitempty"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}
