package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CTNMhh/mpoint/internal/domain"
	"github.com/CTNMhh/mpoint/internal/repository"
)

// conversationScanLimit bounds the message window the chat list is built
// from. Peers whose last exchange fell out of the window fall off the list.
const conversationScanLimit = 200

type ConversationService struct {
	messageRepo repository.MessageRepository
	matchRepo   repository.MatchRepository
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	log         *zap.Logger
}

func NewConversationService(
	messageRepo repository.MessageRepository,
	matchRepo repository.MatchRepository,
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	log *zap.Logger,
) *ConversationService {
	return &ConversationService{
		messageRepo: messageRepo,
		matchRepo:   matchRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		log:         log,
	}
}

// Conversations folds the user's recent messages into one summary per peer,
// newest exchange first. Channel membership is recomputed from the persisted
// store, never from live subscriptions.
func (s *ConversationService) Conversations(ctx context.Context, me uuid.UUID) ([]domain.ConversationSummary, error) {
	messages, err := s.messageRepo.ListRecentByUser(ctx, me, conversationScanLimit)
	if err != nil {
		return nil, fmt.Errorf("scanning recent messages: %w", err)
	}

	byPeer := make(map[uuid.UUID]*domain.ConversationSummary)
	for i := range messages {
		msg := &messages[i]
		peer := msg.OtherParty(me)
		if peer == me {
			continue
		}

		sum, seen := byPeer[peer]
		if !seen {
			sum = &domain.ConversationSummary{
				PeerUserID:  peer,
				ChannelType: domain.ChannelKindDirect,
				LastAt:      msg.CreatedAt,
				LastContent: msg.Content,
			}
			byPeer[peer] = sum
		} else if msg.CreatedAt.After(sum.LastAt) {
			sum.LastAt = msg.CreatedAt
			sum.LastContent = msg.Content
		}

		// Any match-linked message in the window marks the peer as ever
		// matched, even if that match is long gone.
		if msg.MatchID != nil {
			sum.HasMatch = true
			if sum.MatchID == nil {
				id := *msg.MatchID
				sum.MatchID = &id
			}
		}
	}

	if len(byPeer) == 0 {
		return []domain.ConversationSummary{}, nil
	}

	peers := make([]uuid.UUID, 0, len(byPeer))
	for peer := range byPeer {
		peers = append(peers, peer)
	}

	if err := s.enrich(ctx, me, peers, byPeer); err != nil {
		return nil, err
	}

	summaries := make([]domain.ConversationSummary, 0, len(byPeer))
	for _, sum := range byPeer {
		summaries = append(summaries, *sum)
	}
	// Enrichment is unordered, so sort once at the end.
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastAt.After(summaries[j].LastAt)
	})
	return summaries, nil
}

// enrich batch-resolves display identities and currently-active matches for
// every peer in the summary map.
func (s *ConversationService) enrich(ctx context.Context, me uuid.UUID, peers []uuid.UUID, byPeer map[uuid.UUID]*domain.ConversationSummary) error {
	users, err := s.userRepo.ListByIDs(ctx, peers)
	if err != nil {
		return fmt.Errorf("resolving peer users: %w", err)
	}
	userByID := make(map[uuid.UUID]*domain.User, len(users))
	for i := range users {
		userByID[users[i].ID] = &users[i]
	}

	companies, err := s.companyRepo.ListFirstByUsers(ctx, peers)
	if err != nil {
		return fmt.Errorf("resolving peer companies: %w", err)
	}
	companyByOwner := make(map[uuid.UUID]*domain.Company, len(companies))
	for i := range companies {
		companyByOwner[companies[i].OwnerID] = &companies[i]
	}

	actives, err := s.matchRepo.ListActiveByUser(ctx, me)
	if err != nil {
		return fmt.Errorf("resolving active matches: %w", err)
	}
	for i := range actives {
		match := &actives[i]
		sum, ok := byPeer[match.OtherUser(me)]
		if !ok {
			continue
		}
		// An active match id beats a merely historical one from the window.
		id := match.ID
		sum.MatchID = &id
		sum.HasMatch = true
		// "match" display only for a live CONNECTED match; anything less
		// stays a direct conversation on screen.
		if match.IsConnected() {
			sum.ChannelType = domain.ChannelKindMatch
		}
	}

	for peer, sum := range byPeer {
		user := userByID[peer]
		company := companyByOwner[peer]
		if user == nil {
			s.log.Debug("conversations: peer without user row",
				zap.String("peer", peer.String()))
		}
		sum.Name = displayName(user, company, peer)
		if company != nil {
			name := company.Name
			sum.CompanyName = &name
		}
	}
	return nil
}
