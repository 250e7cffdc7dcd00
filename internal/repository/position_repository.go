package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rso-api/internal/models"
	appErrors "github.com/noah-isme/rso-api/pkg/errors"
)

type levelTables struct {
	positions    string
	applications string
}

// positionTables maps a unit level to its membership tables.
var positionTables = map[models.UnitLevel]levelTables{
	models.LevelCentral:     {positions: "central_positions", applications: "central_applications"},
	models.LevelDistrict:    {positions: "district_positions", applications: "district_applications"},
	models.LevelRegional:    {positions: "regional_positions", applications: "regional_applications"},
	models.LevelLocal:       {positions: "local_positions", applications: "local_applications"},
	models.LevelEducational: {positions: "educational_positions", applications: "educational_applications"},
	models.LevelDetachment:  {positions: "detachment_positions", applications: "detachment_applications"},
}

func tablesFor(level models.UnitLevel) (levelTables, error) {
	tables, ok := positionTables[level]
	if !ok {
		return levelTables{}, appErrors.Clone(appErrors.ErrUnknownLevel, fmt.Sprintf("unknown unit level %q", level))
	}
	return tables, nil
}

// PositionRepository persists per-level membership positions.
type PositionRepository struct {
	db *sqlx.DB
}

// NewPositionRepository constructs the repository.
func NewPositionRepository(db *sqlx.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByUser returns the user's position at the level, or sql.ErrNoRows.
func (r *PositionRepository) FindByUser(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, userID string) (*models.Position, error) {
	tables, err := tablesFor(level)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, user_id, unit_id, title, is_trusted, created_at, updated_at FROM %s WHERE user_id = $1`, tables.positions)
	var position models.Position
	if err := sqlx.GetContext(ctx, r.exec(exec), &position, query, userID); err != nil {
		return nil, err
	}
	position.Level = level
	return &position, nil
}

// Upsert writes the user's single position at the level, re-targeting any existing row.
func (r *PositionRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, position *models.Position) error {
	tables, err := tablesFor(level)
	if err != nil {
		return err
	}
	if position.ID == "" {
		position.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if position.CreatedAt.IsZero() {
		position.CreatedAt = now
	}
	position.UpdatedAt = now
	position.Level = level

	query := fmt.Sprintf(`INSERT INTO %s (id, user_id, unit_id, title, is_trusted, created_at, updated_at)
VALUES (:id, :user_id, :unit_id, :title, :is_trusted, :created_at, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET unit_id = EXCLUDED.unit_id, title = EXCLUDED.title,
	is_trusted = EXCLUDED.is_trusted, updated_at = EXCLUDED.updated_at`, tables.positions)
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, position); err != nil {
		return fmt.Errorf("upsert %s position: %w", level, err)
	}
	return nil
}

// DeleteByUser removes the user's position at the level and reports whether a row existed.
func (r *PositionRepository) DeleteByUser(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, userID string) (bool, error) {
	tables, err := tablesFor(level)
	if err != nil {
		return false, err
	}
	result, err := r.exec(exec).ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, tables.positions), userID)
	if err != nil {
		return false, fmt.Errorf("delete %s position: %w", level, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s position rows affected: %w", level, err)
	}
	return affected > 0, nil
}

// DeleteAllForUser removes the user's positions at every level.
func (r *PositionRepository) DeleteAllForUser(ctx context.Context, exec sqlx.ExtContext, userID string) error {
	for _, level := range models.Levels {
		if _, err := r.DeleteByUser(ctx, exec, level, userID); err != nil {
			return err
		}
	}
	return nil
}

// ListByUnit returns every position held in the unit.
func (r *PositionRepository) ListByUnit(ctx context.Context, exec sqlx.ExtContext, level models.UnitLevel, unitID string) ([]models.Position, error) {
	tables, err := tablesFor(level)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, user_id, unit_id, title, is_trusted, created_at, updated_at FROM %s WHERE unit_id = $1 ORDER BY created_at ASC, id ASC`, tables.positions)
	var positions []models.Position
	if err := sqlx.SelectContext(ctx, r.exec(exec), &positions, query, unitID); err != nil {
		return nil, fmt.Errorf("list %s positions: %w", level, err)
	}
	for i := range positions {
		positions[i].Level = level
	}
	return positions, nil
}

// CountByUnit returns the number of members of the unit.
func (r *PositionRepository) CountByUnit(ctx context.Context, level models.UnitLevel, unitID string) (int, error) {
	tables, err := tablesFor(level)
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.db.GetContext(ctx, &count, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE unit_id = $1`, tables.positions), unitID); err != nil {
		return 0, fmt.Errorf("count %s positions: %w", level, err)
	}
	return count, nil
}
