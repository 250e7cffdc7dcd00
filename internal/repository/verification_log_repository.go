package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/rso-api/internal/models"
)

// VerificationLogRepository is the append-only store of report review snapshots.
type VerificationLogRepository struct {
	db *sqlx.DB
}

// NewVerificationLogRepository constructs the repository.
func NewVerificationLogRepository(db *sqlx.DB) *VerificationLogRepository {
	return &VerificationLogRepository{db: db}
}

// Append writes a new log entry. Entries are never updated.
func (r *VerificationLogRepository) Append(ctx context.Context, entry *models.VerificationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(entry.Snapshot) == 0 {
		entry.Snapshot = types.JSONText(`{}`)
	}
	if len(entry.Reasons) == 0 {
		entry.Reasons = types.JSONText(`{}`)
	}
	const query = `INSERT INTO report_verification_logs (id, report_id, level, action, actor_id, snapshot, reasons, created_at)
VALUES (:id, :report_id, :level, :action, :actor_id, :snapshot, :reasons, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append verification log: %w", err)
	}
	return nil
}

// ListByReport returns the report's review history, oldest first.
func (r *VerificationLogRepository) ListByReport(ctx context.Context, reportID string) ([]models.VerificationLog, error) {
	const query = `SELECT id, report_id, level, action, actor_id, snapshot, reasons, created_at
FROM report_verification_logs WHERE report_id = $1 ORDER BY created_at ASC, id ASC`
	var logs []models.VerificationLog
	if err := r.db.SelectContext(ctx, &logs, query, reportID); err != nil {
		return nil, fmt.Errorf("list verification logs: %w", err)
	}
	return logs, nil
}
