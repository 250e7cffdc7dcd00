package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/rso-api/internal/models"
)

const reportColumns = `id, competition_id, participant_id, detachment_id, metric_key, status, fields, score,
	verified_by_district, verified_by_central, rejection_reasons, created_by, sent_at, approved_at, created_at, updated_at`

const reportEventColumns = `id, report_id, name, participants, start_date, end_date, is_interregional, prize_place,
	event_happened, amount, link, is_verified`

// ReportRepository persists competition reports and their sub-events.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts the report together with its events.
func (r *ReportRepository) Create(ctx context.Context, exec sqlx.ExtContext, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = models.ReportStatusDraft
	}
	if len(report.Fields) == 0 {
		report.Fields = types.JSONText(`{}`)
	}
	if len(report.RejectionReasons) == 0 {
		report.RejectionReasons = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	target := r.exec(exec)
	const query = `INSERT INTO reports (` + reportColumns + `)
VALUES (:id, :competition_id, :participant_id, :detachment_id, :metric_key, :status, :fields, :score,
	:verified_by_district, :verified_by_central, :rejection_reasons, :created_by, :sent_at, :approved_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return r.insertEvents(ctx, target, report.ID, report.Events)
}

type reportTransition struct {
	models.Report
	FromStatus models.ReportStatus `db:"from_status"`
}

// Update stores the mutable report columns if the stored row is still in status from. A row
// that is missing or has moved on returns sql.ErrNoRows. Score is written through UpdateScore
// only.
func (r *ReportRepository) Update(ctx context.Context, exec sqlx.ExtContext, report *models.Report, from models.ReportStatus) error {
	if len(report.RejectionReasons) == 0 {
		report.RejectionReasons = types.JSONText(`{}`)
	}
	report.UpdatedAt = time.Now().UTC()
	const query = `UPDATE reports SET status = :status, fields = :fields, verified_by_district = :verified_by_district,
	verified_by_central = :verified_by_central, rejection_reasons = :rejection_reasons, sent_at = :sent_at,
	approved_at = :approved_at, updated_at = :updated_at WHERE id = :id AND status = :from_status`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, reportTransition{Report: *report, FromStatus: from})
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("report rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateScore persists a computed score.
func (r *ReportRepository) UpdateScore(ctx context.Context, exec sqlx.ExtContext, id string, score float64) error {
	const query = `UPDATE reports SET score = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.exec(exec).ExecContext(ctx, query, score, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update report score: %w", err)
	}
	return nil
}

// ReplaceEvents swaps the report's sub-events for the provided set.
func (r *ReportRepository) ReplaceEvents(ctx context.Context, exec sqlx.ExtContext, reportID string, events []models.ReportEvent) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM report_events WHERE report_id = $1`, reportID); err != nil {
		return fmt.Errorf("delete report events: %w", err)
	}
	return r.insertEvents(ctx, target, reportID, events)
}

func (r *ReportRepository) insertEvents(ctx context.Context, exec sqlx.ExtContext, reportID string, events []models.ReportEvent) error {
	const query = `INSERT INTO report_events (` + reportEventColumns + `)
VALUES (:id, :report_id, :name, :participants, :start_date, :end_date, :is_interregional, :prize_place,
	:event_happened, :amount, :link, :is_verified)`
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
		events[i].ReportID = reportID
		if _, err := sqlx.NamedExecContext(ctx, exec, query, &events[i]); err != nil {
			return fmt.Errorf("insert report event: %w", err)
		}
	}
	return nil
}

// FindByID loads a report with its events.
func (r *ReportRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Report, error) {
	target := r.exec(exec)
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	var report models.Report
	if err := sqlx.GetContext(ctx, target, &report, query, id); err != nil {
		return nil, err
	}
	events, err := r.eventsFor(ctx, target, []string{report.ID})
	if err != nil {
		return nil, err
	}
	report.Events = events[report.ID]
	return &report, nil
}

// List returns reports matching the filter with their events attached.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT ` + reportColumns + ` FROM reports`)

	conditions := make([]string, 0, 4)
	if filter.CompetitionID != "" {
		args = append(args, filter.CompetitionID)
		conditions = append(conditions, fmt.Sprintf("competition_id = $%d", len(args)))
	}
	if len(filter.MetricKeys) > 0 {
		args = append(args, pq.Array(filter.MetricKeys))
		conditions = append(conditions, fmt.Sprintf("metric_key = ANY($%d)", len(args)))
	}
	if filter.ParticipantID != "" {
		args = append(args, filter.ParticipantID)
		conditions = append(conditions, fmt.Sprintf("participant_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.OnlyApproved {
		conditions = append(conditions, "verified_by_central IS TRUE")
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at ASC, id ASC")

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	if len(reports) == 0 {
		return reports, nil
	}

	ids := make([]string, len(reports))
	for i := range reports {
		ids[i] = reports[i].ID
	}
	events, err := r.eventsFor(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range reports {
		reports[i].Events = events[reports[i].ID]
	}
	return reports, nil
}

// FindApprovedScore returns the score of the entrant's most recently approved report for the
// metric, or nil when no such report exists. The order matches models.Report.ApprovedAfter.
func (r *ReportRepository) FindApprovedScore(ctx context.Context, exec sqlx.ExtContext, competitionID, participantID, metricKey string) (*float64, error) {
	const query = `SELECT score FROM reports WHERE competition_id = $1 AND participant_id = $2 AND metric_key = $3
	AND verified_by_central IS TRUE ORDER BY approved_at DESC NULLS LAST, id DESC LIMIT 1`
	var score float64
	if err := sqlx.GetContext(ctx, r.exec(exec), &score, query, competitionID, participantID, metricKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reference score: %w", err)
	}
	return &score, nil
}

func (r *ReportRepository) eventsFor(ctx context.Context, exec sqlx.ExtContext, reportIDs []string) (map[string][]models.ReportEvent, error) {
	query := `SELECT ` + reportEventColumns + ` FROM report_events WHERE report_id = ANY($1) ORDER BY report_id, start_date NULLS LAST, id`
	var events []models.ReportEvent
	if err := sqlx.SelectContext(ctx, exec, &events, query, pq.Array(reportIDs)); err != nil {
		return nil, fmt.Errorf("list report events: %w", err)
	}
	out := make(map[string][]models.ReportEvent, len(reportIDs))
	for _, event := range events {
		out[event.ReportID] = append(out[event.ReportID], event)
	}
	return out, nil
}
