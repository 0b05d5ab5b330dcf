package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CTNMhh/mpoint/internal/broker"
	"github.com/CTNMhh/mpoint/internal/domain"
	"github.com/CTNMhh/mpoint/internal/repository"
)

var (
	ErrSelfChat      = errors.New("cannot chat with yourself")
	ErrMissingPeer   = errors.New("peer user id is required")
	ErrEmptyContent  = errors.New("message content is required")
	ErrMatchNotFound = errors.New("match not found")
	ErrUserNotFound  = errors.New("user not found")
)

const (
	// historyLimit bounds a history fetch to the most recent messages of
	// the channel.
	historyLimit = 100
	// previewRunes bounds the notification body.
	previewRunes = 80
)

type ChatService struct {
	messageRepo repository.MessageRepository
	matchRepo   repository.MatchRepository
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	broker      broker.Broker
	notifier    Notifier
	log         *zap.Logger
}

func NewChatService(
	messageRepo repository.MessageRepository,
	matchRepo repository.MatchRepository,
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	b broker.Broker,
	log *zap.Logger,
) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		matchRepo:   matchRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		broker:      b,
		log:         log,
	}
}

// SetNotifier sets the advisory alert sink (optional dependency).
func (s *ChatService) SetNotifier(n Notifier) {
	s.notifier = n
}

// ResolveChannel decides which channel two users share right now: the active
// match between them if one exists, otherwise their canonical direct channel.
// The result must not be cached across requests, since match status can
// change between any two operations on the same pair.
func (s *ChatService) ResolveChannel(ctx context.Context, me, peer uuid.UUID) (domain.Channel, error) {
	if peer == uuid.Nil {
		return domain.Channel{}, ErrMissingPeer
	}
	if me == peer {
		return domain.Channel{}, ErrSelfChat
	}

	match, err := s.matchRepo.GetActiveByUsers(ctx, me, peer)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("resolving channel: %w", err)
	}
	if match != nil {
		return domain.MatchChannel(match.ID), nil
	}
	return domain.DirectChannel(me, peer), nil
}

type SendInput struct {
	PeerUserID uuid.UUID `json:"peer_user_id"`
	Content    string    `json:"content"`
}

// Send validates, resolves the channel, persists the message, fires the
// receiver's notification and publishes to live streams. Notification and
// publish failures are logged, never returned: once the row is written the
// send has succeeded.
func (s *ChatService) Send(ctx context.Context, me uuid.UUID, input SendInput) (*domain.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	ch, err := s.ResolveChannel(ctx, me, input.PeerUserID)
	if err != nil {
		return nil, err
	}

	var matchID *uuid.UUID
	if ch.Kind == domain.ChannelKindMatch {
		// Reload the row: the match may have been deleted since resolution.
		match, err := s.matchRepo.GetByID(ctx, *ch.MatchID)
		if err != nil {
			return nil, fmt.Errorf("loading match: %w", err)
		}
		if match == nil || !match.HasUser(me) {
			return nil, ErrMatchNotFound
		}
		matchID = ch.MatchID
	}

	senderCompany, senderCompanyID, err := s.companyOf(ctx, me)
	if err != nil {
		return nil, err
	}
	_, receiverCompanyID, err := s.companyOf(ctx, input.PeerUserID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:                uuid.New(),
		MatchID:           matchID,
		SenderUserID:      me,
		ReceiverUserID:    input.PeerUserID,
		SenderCompanyID:   senderCompanyID,
		ReceiverCompanyID: receiverCompanyID,
		Content:           content,
		CreatedAt:         time.Now(),
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	if s.notifier != nil {
		senderName := shortID(me)
		if senderCompany != nil {
			senderName = senderCompany.Name
		}
		s.notifier.Notify(input.PeerUserID, Notification{
			Title: senderName,
			Body:  preview(content),
			Link:  "/chat?peerUserId=" + me.String(),
		})
	}

	if err := s.broker.Publish(ctx, ch.Key(), msg); err != nil {
		s.log.Warn("chat: publish after send failed",
			zap.String("key", ch.Key()), zap.Error(err))
	}

	return msg, nil
}

// History returns the channel the two users share and its bounded backlog in
// ascending created_at order. Read-only.
func (s *ChatService) History(ctx context.Context, me, peer uuid.UUID) (domain.Channel, []domain.Message, error) {
	ch, err := s.ResolveChannel(ctx, me, peer)
	if err != nil {
		return domain.Channel{}, nil, err
	}

	var messages []domain.Message
	if ch.Kind == domain.ChannelKindMatch {
		messages, err = s.messageRepo.ListByMatch(ctx, *ch.MatchID, historyLimit)
	} else {
		messages, err = s.messageRepo.ListDirect(ctx, ch.UserLow, ch.UserHigh, historyLimit)
	}
	if err != nil {
		return domain.Channel{}, nil, fmt.Errorf("loading history: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return ch, messages, nil
}

// Stream resolves the pair's channel and opens a live subscription on it.
// The caller owns the subscription and must Close it when the connection
// ends. A reconnect is a fresh Stream call with a fresh resolution.
func (s *ChatService) Stream(ctx context.Context, me, peer uuid.UUID) (broker.Subscription, domain.Channel, error) {
	ch, err := s.ResolveChannel(ctx, me, peer)
	if err != nil {
		return nil, domain.Channel{}, err
	}

	sub, err := s.broker.Subscribe(ctx, ch.Key())
	if err != nil {
		return nil, domain.Channel{}, fmt.Errorf("subscribing to %s: %w", ch.Key(), err)
	}
	return sub, ch, nil
}

type PeerSummary struct {
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	CompanyName *string   `json:"company_name,omitempty"`
}

// UserSummary resolves a best-effort display identity for a user.
func (s *ChatService) UserSummary(ctx context.Context, userID uuid.UUID) (*PeerSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	company, err := s.companyRepo.GetFirstByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading company: %w", err)
	}

	summary := &PeerSummary{
		UserID: userID,
		Name:   displayName(user, company, userID),
	}
	if company != nil {
		name := company.Name
		summary.CompanyName = &name
	}
	return summary, nil
}

// companyOf returns the user's first company (nil when none) plus the
// company id to stamp on messages, synthesized for company-less users.
func (s *ChatService) companyOf(ctx context.Context, userID uuid.UUID) (*domain.Company, uuid.UUID, error) {
	company, err := s.companyRepo.GetFirstByUser(ctx, userID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("loading company: %w", err)
	}
	if company == nil {
		return nil, domain.PlaceholderCompanyID(userID), nil
	}
	return company, company.ID, nil
}

// displayName picks company name, then person display name, then username,
// then a truncated identifier.
func displayName(user *domain.User, company *domain.Company, id uuid.UUID) string {
	if company != nil && company.Name != "" {
		return company.Name
	}
	if user != nil {
		if user.DisplayName != "" {
			return user.DisplayName
		}
		if user.Username != "" {
			return user.Username
		}
	}
	return shortID(id)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewRunes {
		return content
	}
	return string(runes[:previewRunes]) + "..."
}
