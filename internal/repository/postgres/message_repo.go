package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CTNMhh/mpoint/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `id, match_id, sender_user_id, receiver_user_id,
	sender_company_id, receiver_company_id, content, created_at`

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, match_id, sender_user_id, receiver_user_id,
			sender_company_id, receiver_company_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.MatchID, msg.SenderUserID, msg.ReceiverUserID,
		msg.SenderCompanyID, msg.ReceiverCompanyID, msg.Content, msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) ListByMatch(ctx context.Context, matchID uuid.UUID, limit int) ([]domain.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE match_id = $1
		ORDER BY created_at DESC
		LIMIT %d`, messageColumns, limit)

	rows, err := r.pool.Query(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessagesAscending(rows)
}

func (r *MessageRepo) ListDirect(ctx context.Context, userA, userB uuid.UUID, limit int) ([]domain.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE match_id IS NULL
			AND ((sender_user_id = $1 AND receiver_user_id = $2)
				OR (sender_user_id = $2 AND receiver_user_id = $1))
		ORDER BY created_at DESC
		LIMIT %d`, messageColumns, limit)

	rows, err := r.pool.Query(ctx, query, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessagesAscending(rows)
}

func (r *MessageRepo) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE sender_user_id = $1 OR receiver_user_id = $1
		ORDER BY created_at DESC
		LIMIT %d`, messageColumns, limit)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func scanMessage(rows pgx.Rows) (domain.Message, error) {
	var msg domain.Message
	err := rows.Scan(
		&msg.ID, &msg.MatchID, &msg.SenderUserID, &msg.ReceiverUserID,
		&msg.SenderCompanyID, &msg.ReceiverCompanyID, &msg.Content, &msg.CreatedAt,
	)
	return msg, err
}

// scanMessagesAscending collects rows queried newest-first and reverses them
// into chronological order.
func scanMessagesAscending(rows pgx.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
