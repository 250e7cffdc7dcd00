package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rso-api/internal/models"
)

// CompetitionRepository reads competitions and their entrants.
type CompetitionRepository struct {
	db *sqlx.DB
}

// NewCompetitionRepository constructs the repository.
func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

// FindByID loads a competition.
func (r *CompetitionRepository) FindByID(ctx context.Context, id string) (*models.Competition, error) {
	const query = `SELECT id, name, cutoff_date, created_at FROM competitions WHERE id = $1`
	var competition models.Competition
	if err := r.db.GetContext(ctx, &competition, query, id); err != nil {
		return nil, err
	}
	return &competition, nil
}

// List returns all competitions, newest first.
func (r *CompetitionRepository) List(ctx context.Context) ([]models.Competition, error) {
	const query = `SELECT id, name, cutoff_date, created_at FROM competitions ORDER BY created_at DESC`
	var competitions []models.Competition
	if err := r.db.SelectContext(ctx, &competitions, query); err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	return competitions, nil
}

// ListParticipants returns every entrant of the competition.
func (r *CompetitionRepository) ListParticipants(ctx context.Context, competitionID string) ([]models.Participant, error) {
	const query = `SELECT id, competition_id, junior_detachment_id, detachment_id, created_at
FROM competition_participants WHERE competition_id = $1 ORDER BY id`
	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, competitionID); err != nil {
		return nil, fmt.Errorf("list competition participants: %w", err)
	}
	return participants, nil
}

// FindParticipant loads one entrant.
func (r *CompetitionRepository) FindParticipant(ctx context.Context, id string) (*models.Participant, error) {
	const query = `SELECT id, competition_id, junior_detachment_id, detachment_id, created_at
FROM competition_participants WHERE id = $1`
	var participant models.Participant
	if err := r.db.GetContext(ctx, &participant, query, id); err != nil {
		return nil, err
	}
	return &participant, nil
}
