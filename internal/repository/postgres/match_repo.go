package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CTNMhh/mpoint/internal/domain"
)

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

const matchColumns = `id, sender_user_id, receiver_user_id, status, created_at, updated_at`

func (r *MatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE id = $1`
	var m domain.Match
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.SenderUserID, &m.ReceiverUserID, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}

func (r *MatchRepo) GetActiveByUsers(ctx context.Context, userA, userB uuid.UUID) (*domain.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = ANY($3)
			AND ((sender_user_id = $1 AND receiver_user_id = $2)
				OR (sender_user_id = $2 AND receiver_user_id = $1))
		ORDER BY updated_at DESC
		LIMIT 1`
	var m domain.Match
	err := r.pool.QueryRow(ctx, query, userA, userB, activeStatuses()).Scan(
		&m.ID, &m.SenderUserID, &m.ReceiverUserID, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}

func (r *MatchRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]domain.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = ANY($2)
			AND (sender_user_id = $1 OR receiver_user_id = $1)
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, activeStatuses())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(
			&m.ID, &m.SenderUserID, &m.ReceiverUserID, &m.Status, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func activeStatuses() []string {
	statuses := make([]string, len(domain.ActiveMatchStatuses))
	for i, s := range domain.ActiveMatchStatuses {
		statuses[i] = string(s)
	}
	return statuses
}
