package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rso-api/internal/models"
)

// ApplicationRepository persists pending membership applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Exists reports whether the user already applied to the unit.
func (r *ApplicationRepository) Exists(ctx context.Context, level models.UnitLevel, userID, unitID string) (bool, error) {
	tables, err := tablesFor(level)
	if err != nil {
		return false, err
	}
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE user_id = $1 AND unit_id = $2)`, tables.applications)
	if err := r.db.GetContext(ctx, &exists, query, userID, unitID); err != nil {
		return false, fmt.Errorf("check %s application: %w", level, err)
	}
	return exists, nil
}

// Create inserts an application.
func (r *ApplicationRepository) Create(ctx context.Context, level models.UnitLevel, application *models.Application) error {
	tables, err := tablesFor(level)
	if err != nil {
		return err
	}
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	if application.CreatedAt.IsZero() {
		application.CreatedAt = time.Now().UTC()
	}
	application.Level = level
	query := fmt.Sprintf(`INSERT INTO %s (id, user_id, unit_id, message, created_at) VALUES (:id, :user_id, :unit_id, :message, :created_at)`, tables.applications)
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		return fmt.Errorf("insert %s application: %w", level, err)
	}
	return nil
}

// FindByID loads an application, returning sql.ErrNoRows when missing.
func (r *ApplicationRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, id string) (*models.Application, error) {
	tables, err := tablesFor(level)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, user_id, unit_id, message, created_at FROM %s WHERE id = $1`, tables.applications)
	var application models.Application
	if err := sqlx.GetContext(ctx, r.exec(exec), &application, query, id); err != nil {
		return nil, err
	}
	application.Level = level
	return &application, nil
}

// ListByUnit returns pending applications to the unit, oldest first.
func (r *ApplicationRepository) ListByUnit(ctx context.Context, level models.UnitLevel, unitID string) ([]models.Application, error) {
	tables, err := tablesFor(level)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, user_id, unit_id, message, created_at FROM %s WHERE unit_id = $1 ORDER BY created_at ASC`, tables.applications)
	var applications []models.Application
	if err := r.db.SelectContext(ctx, &applications, query, unitID); err != nil {
		return nil, fmt.Errorf("list %s applications: %w", level, err)
	}
	for i := range applications {
		applications[i].Level = level
	}
	return applications, nil
}

// Delete removes an application.
func (r *ApplicationRepository) Delete(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, id string) error {
	tables, err := tablesFor(level)
	if err != nil {
		return err
	}
	if _, err := r.exec(exec).ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tables.applications), id); err != nil {
		return fmt.Errorf("delete %s application: %w", level, err)
	}
	return nil
}
