package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/spec-kit/lead-service/internal/domain"
)

// UserRepository defines persistence access for users and their role grants.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User, roles []domain.Role) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `
        u.id, u.name, u.email, u.password_hash, u.created_at, u.updated_at,
        COALESCE(ARRAY_AGG(a.name ORDER BY a.name) FILTER (WHERE a.name IS NOT NULL), '{}')`

const userFrom = `
        FROM users u
        LEFT JOIN user_accesses ua ON ua.user_id = u.id
        LEFT JOIN accesses a ON a.id = ua.access_id`

// Create inserts the user and its role grants in one transaction. Unknown
// role names surface as ErrUnknownRole.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		user.ID = id.String()
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO users (id, name, email, password_hash)
            VALUES ($1, $2, $3, $4)
            RETURNING created_at, updated_at`
		if err := tx.QueryRow(ctx, query,
			user.ID,
			user.Name,
			user.Email,
			user.PasswordHash,
		).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}
		return grantRoles(ctx, tx, user.ID, user.Roles)
	})
}

// Update writes the profile columns and, when roles is non-nil, replaces
// every grant, all in one transaction. A missing user yields pgx.ErrNoRows.
func (r *userRepository) Update(ctx context.Context, user *domain.User, roles []domain.Role) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            UPDATE users SET name=$1, email=$2, password_hash=$3, updated_at=NOW()
            WHERE id=$4
            RETURNING updated_at`
		if err := tx.QueryRow(ctx, query,
			user.Name,
			user.Email,
			user.PasswordHash,
			user.ID,
		).Scan(&user.UpdatedAt); err != nil {
			return err
		}
		if roles == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_accesses WHERE user_id=$1`, user.ID); err != nil {
			return err
		}
		return grantRoles(ctx, tx, user.ID, roles)
	})
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT` + userColumns + userFrom + ` WHERE u.id=$1 GROUP BY u.id`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT` + userColumns + userFrom + ` WHERE u.email=$1 GROUP BY u.id`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT` + userColumns + userFrom + ` GROUP BY u.id ORDER BY u.created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func grantRoles(ctx context.Context, tx pgx.Tx, userID string, roles []domain.Role) error {
	if len(roles) == 0 {
		return nil
	}
	names := lo.Map(lo.Uniq(roles), func(role domain.Role, _ int) string { return string(role) })
	const query = `
        INSERT INTO user_accesses (user_id, access_id)
        SELECT $1, id FROM accesses WHERE name = ANY($2)`
	cmd, err := tx.Exec(ctx, query, userID, names)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() != int64(len(names)) {
		return ErrUnknownRole
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user  domain.User
		roles []string
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
		&roles,
	); err != nil {
		return nil, err
	}
	user.Roles = lo.Map(roles, func(name string, _ int) domain.Role { return domain.Role(name) })
	return &user, nil
}
