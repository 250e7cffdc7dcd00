package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rso-api/internal/models"
)

const unitColumns = `id, level, name, commander_id, region_id, about, central_id, district_id, regional_id, local_id, educational_id, created_at, updated_at`

// UnitRepository persists organisational units of every level.
type UnitRepository struct {
	db *sqlx.DB
}

// NewUnitRepository constructs the repository.
func NewUnitRepository(db *sqlx.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

func (r *UnitRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads a unit. sql.ErrNoRows is returned untouched when missing.
func (r *UnitRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE id = $1`
	var unit models.Unit
	if err := sqlx.GetContext(ctx, r.exec(exec), &unit, query, id); err != nil {
		return nil, err
	}
	return &unit, nil
}

// FindRegionalByRegion returns the regional unit serving the declared region.
func (r *UnitRepository) FindRegionalByRegion(ctx context.Context, exec sqlx.ExtContext, regionID string) (*models.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE level = $1 AND region_id = $2 ORDER BY created_at ASC LIMIT 1`
	var unit models.Unit
	if err := sqlx.GetContext(ctx, r.exec(exec), &unit, query, models.LevelRegional, regionID); err != nil {
		return nil, err
	}
	return &unit, nil
}

// Create inserts a unit.
func (r *UnitRepository) Create(ctx context.Context, exec sqlx.ExtContext, unit *models.Unit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = now
	}
	unit.UpdatedAt = now
	const query = `INSERT INTO units (` + unitColumns + `)
VALUES (:id, :level, :name, :commander_id, :region_id, :about, :central_id, :district_id, :regional_id, :local_id, :educational_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, unit); err != nil {
		return fmt.Errorf("insert unit: %w", err)
	}
	return nil
}

// UpdateLinks stores the unit's parent references.
func (r *UnitRepository) UpdateLinks(ctx context.Context, exec sqlx.ExtContext, unit *models.Unit) error {
	unit.UpdatedAt = time.Now().UTC()
	const query = `UPDATE units SET central_id = :central_id, district_id = :district_id, regional_id = :regional_id,
	local_id = :local_id, educational_id = :educational_id, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, unit); err != nil {
		return fmt.Errorf("update unit links: %w", err)
	}
	return nil
}
