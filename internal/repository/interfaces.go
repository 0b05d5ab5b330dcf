package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/CTNMhh/mpoint/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListByMatch returns the most recent limit messages of a match channel
	// in ascending created_at order.
	ListByMatch(ctx context.Context, matchID uuid.UUID, limit int) ([]domain.Message, error)
	// ListDirect returns the most recent limit direct messages (match_id IS
	// NULL) exchanged between the two users, either direction, ascending.
	ListDirect(ctx context.Context, userA, userB uuid.UUID, limit int) ([]domain.Message, error)
	// ListRecentByUser returns the newest limit messages where the user is
	// sender or receiver, descending. Aggregation scan window.
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error)
}

type MatchRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error)
	// GetActiveByUsers returns the active match between the two users in
	// either direction, most recently updated first, or nil.
	GetActiveByUsers(ctx context.Context, userA, userB uuid.UUID) (*domain.Match, error)
	// ListActiveByUser returns every active match the user is part of.
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]domain.Match, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)
}

type CompanyRepository interface {
	// GetFirstByUser returns the user's first company by creation time, or
	// nil when the user has no company profile.
	GetFirstByUser(ctx context.Context, userID uuid.UUID) (*domain.Company, error)
	// ListFirstByUsers resolves the first company for each given user; users
	// without one are simply absent from the result.
	ListFirstByUsers(ctx context.Context, userIDs []uuid.UUID) ([]domain.Company, error)
}
