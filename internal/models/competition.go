package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Competition groups entrants, reports and rankings for one season.
type Competition struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	CutoffDate *time.Time `db:"cutoff_date" json:"cutoff_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Participant is a competing entrant. A participant with a senior DetachmentID is a tandem.
type Participant struct {
	ID                 string    `db:"id" json:"id"`
	CompetitionID      string    `db:"competition_id" json:"competition_id"`
	JuniorDetachmentID string    `db:"junior_detachment_id" json:"junior_detachment_id"`
	DetachmentID       *string   `db:"detachment_id" json:"detachment_id,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// IsTandem reports whether the entrant is a junior/senior pair.
func (p Participant) IsTandem() bool {
	return p.DetachmentID != nil && *p.DetachmentID != ""
}

// Places maps a metric number to the entrant's place for that metric.
type Places map[string]int

// Value implements driver.Valuer.
func (p Places) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *Places) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = Places{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan places: unsupported type %T", src)
	}
	out := Places{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("scan places: %w", err)
		}
	}
	*p = out
	return nil
}

// RankingEntry holds an entrant's per-metric places and the derived aggregates.
type RankingEntry struct {
	CompetitionID   string    `db:"competition_id" json:"competition_id"`
	ParticipantID   string    `db:"participant_id" json:"participant_id"`
	Tandem          bool      `db:"tandem" json:"tandem"`
	Places          Places    `db:"places" json:"places"`
	SumOfPlaces     int       `db:"sum_of_places" json:"sum_of_places"`
	OverallPlace    int       `db:"overall_place" json:"overall_place"`
	CoreSumOfPlaces int       `db:"core_sum_of_places" json:"core_sum_of_places"`
	CorePlace       int       `db:"core_place" json:"core_place"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
