package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-service/internal/domain"
)

// ErrUnknownRole is returned when a grant names a role missing from accesses.
var ErrUnknownRole = errors.New("access role does not exist")

// AccessRepository manages the grantable roles.
type AccessRepository interface {
	Ensure(ctx context.Context, name domain.Role) (created bool, err error)
	List(ctx context.Context) ([]domain.Access, error)
}

type accessRepository struct {
	pool *pgxpool.Pool
}

// NewAccessRepository constructs repository.
func NewAccessRepository(pool *pgxpool.Pool) AccessRepository {
	return &accessRepository{pool: pool}
}

// Ensure inserts the role when absent.
func (r *accessRepository) Ensure(ctx context.Context, name domain.Role) (bool, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return false, err
	}
	cmd, err := r.pool.Exec(ctx,
		`INSERT INTO accesses (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		id.String(), string(name))
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *accessRepository) List(ctx context.Context) ([]domain.Access, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM accesses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Access
	for rows.Next() {
		var (
			access domain.Access
			name   string
		)
		if err := rows.Scan(&access.ID, &name); err != nil {
			return nil, err
		}
		access.Name = domain.Role(name)
		result = append(result, access)
	}
	return result, rows.Err()
}
