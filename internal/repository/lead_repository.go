package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-service/internal/domain"
)

// LeadRepository encapsulates lead persistence.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, limit, offset int) ([]domain.Lead, error)
	Count(ctx context.Context) (int, error)
	ListAfter(ctx context.Context, cursor string, limit int) ([]domain.Lead, error)
}

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository instantiates repository.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

const leadColumns = `
        id, name, email, telephone, position, message, date_birth,
        utm_source, utm_medium, utm_campaign, utm_term, utm_content, gclid, fbclid,
        created_at, updated_at`

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	if lead.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		lead.ID = id.String()
	}

	const query = `
        INSERT INTO leads (id, name, email, telephone, position, message, date_birth,
            utm_source, utm_medium, utm_campaign, utm_term, utm_content, gclid, fbclid)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Telephone,
		lead.Position,
		lead.Message,
		lead.DateBirth,
		lead.UTMSource,
		lead.UTMMedium,
		lead.UTMCampaign,
		lead.UTMTerm,
		lead.UTMContent,
		lead.GCLID,
		lead.FBCLID,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	const query = `
        UPDATE leads SET name=$1, email=$2, telephone=$3, position=$4, message=$5, date_birth=$6,
            utm_source=$7, utm_medium=$8, utm_campaign=$9, utm_term=$10, utm_content=$11,
            gclid=$12, fbclid=$13, updated_at=NOW()
        WHERE id=$14
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		lead.Name,
		lead.Email,
		lead.Telephone,
		lead.Position,
		lead.Message,
		lead.DateBirth,
		lead.UTMSource,
		lead.UTMMedium,
		lead.UTMCampaign,
		lead.UTMTerm,
		lead.UTMContent,
		lead.GCLID,
		lead.FBCLID,
		lead.ID,
	).Scan(&lead.UpdatedAt)
}

func (r *leadRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	query := `SELECT` + leadColumns + ` FROM leads WHERE id=$1`
	return scanLead(r.pool.QueryRow(ctx, query, id))
}

// List returns a newest-first page for the admin listing.
func (r *leadRepository) List(ctx context.Context, limit, offset int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT` + leadColumns + ` FROM leads ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *leadRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`).Scan(&count)
	return count, err
}

// ListAfter returns up to limit leads with id greater than cursor in
// ascending id order. An empty cursor starts from the beginning.
func (r *leadRepository) ListAfter(ctx context.Context, cursor string, limit int) ([]domain.Lead, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if cursor == "" {
		rows, err = r.pool.Query(ctx, `SELECT`+leadColumns+` FROM leads ORDER BY id ASC LIMIT $1`, limit)
	} else {
		rows, err = r.pool.Query(ctx, `SELECT`+leadColumns+` FROM leads WHERE id > $1 ORDER BY id ASC LIMIT $2`, cursor, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var lead domain.Lead
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Telephone,
		&lead.Position,
		&lead.Message,
		&lead.DateBirth,
		&lead.UTMSource,
		&lead.UTMMedium,
		&lead.UTMCampaign,
		&lead.UTMTerm,
		&lead.UTMContent,
		&lead.GCLID,
		&lead.FBCLID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}

func scanLeads(rows pgx.Rows) ([]domain.Lead, error) {
	var result []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *lead)
	}
	return result, rows.Err()
}
