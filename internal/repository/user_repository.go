package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rso-api/internal/models"
)

// UserRepository reads the account records managed by the identity service.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier. sql.ErrNoRows is returned untouched when missing.
func (r *UserRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.User, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `SELECT id, full_name, region_id, active, created_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := sqlx.GetContext(ctx, exec, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}
