package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CTNMhh/mpoint/internal/domain"
)

type CompanyRepo struct {
	pool *pgxpool.Pool
}

func NewCompanyRepo(pool *pgxpool.Pool) *CompanyRepo {
	return &CompanyRepo{pool: pool}
}

func (r *CompanyRepo) GetFirstByUser(ctx context.Context, userID uuid.UUID) (*domain.Company, error) {
	query := `
		SELECT id, owner_id, name, created_at
		FROM companies
		WHERE owner_id = $1
		ORDER BY created_at ASC
		LIMIT 1`
	var c domain.Company
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &c, err
}

func (r *CompanyRepo) ListFirstByUsers(ctx context.Context, userIDs []uuid.UUID) ([]domain.Company, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT ON (owner_id) id, owner_id, name, created_at
		FROM companies
		WHERE owner_id = ANY($1)
		ORDER BY owner_id, created_at ASC`
	rows, err := r.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}
