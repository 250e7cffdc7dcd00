package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rso-api/internal/models"
)

// RankingRepository persists aggregated competition places.
type RankingRepository struct {
	db *sqlx.DB
}

// NewRankingRepository constructs the repository.
func NewRankingRepository(db *sqlx.DB) *RankingRepository {
	return &RankingRepository{db: db}
}

func (r *RankingRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// LockPools takes a row lock on the competition for the rest of the transaction so pool
// rewrites of one competition commit one after another.
func (r *RankingRepository) LockPools(ctx context.Context, exec sqlx.ExtContext, competitionID string) error {
	var id string
	if err := sqlx.GetContext(ctx, r.exec(exec), &id, `SELECT id FROM competitions WHERE id = $1 FOR UPDATE`, competitionID); err != nil {
		return fmt.Errorf("lock competition rankings: %w", err)
	}
	return nil
}

// ListPool returns the ranking rows of one pool ordered by overall place.
func (r *RankingRepository) ListPool(ctx context.Context, exec sqlx.ExtContext, competitionID string, tandem bool) ([]models.RankingEntry, error) {
	const query = `SELECT competition_id, participant_id, tandem, places, sum_of_places, overall_place,
	core_sum_of_places, core_place, updated_at
FROM rankings WHERE competition_id = $1 AND tandem = $2 ORDER BY overall_place ASC, participant_id ASC`
	var entries []models.RankingEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, competitionID, tandem); err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	return entries, nil
}

// ReplacePool deletes the pool's rows and writes the new generation.
func (r *RankingRepository) ReplacePool(ctx context.Context, exec sqlx.ExtContext, competitionID string, tandem bool, entries []models.RankingEntry) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM rankings WHERE competition_id = $1 AND tandem = $2`, competitionID, tandem); err != nil {
		return fmt.Errorf("delete rankings: %w", err)
	}

	const query = `INSERT INTO rankings (competition_id, participant_id, tandem, places, sum_of_places, overall_place,
	core_sum_of_places, core_place, updated_at)
VALUES (:competition_id, :participant_id, :tandem, :places, :sum_of_places, :overall_place,
	:core_sum_of_places, :core_place, :updated_at)`
	now := time.Now().UTC()
	for i := range entries {
		entries[i].CompetitionID = competitionID
		entries[i].Tandem = tandem
		entries[i].UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, &entries[i]); err != nil {
			return fmt.Errorf("insert ranking: %w", err)
		}
	}
	return nil
}
