package service_test

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/CTNMhh/mpoint/internal/broker"
	"github.com/CTNMhh/mpoint/internal/domain"
	"github.com/CTNMhh/mpoint/internal/service"
)

// In-memory fakes for the repository and broker dependencies. They mirror
// the postgres queries closely enough to exercise ordering and bounds.

type fakeMessageRepo struct {
	messages  []domain.Message
	createErr error
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageRepo) ListByMatch(_ context.Context, matchID uuid.UUID, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range f.messages {
		if m.MatchID != nil && *m.MatchID == matchID {
			out = append(out, m)
		}
	}
	return boundAscending(out, limit), nil
}

func (f *fakeMessageRepo) ListDirect(_ context.Context, userA, userB uuid.UUID, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range f.messages {
		if m.MatchID != nil {
			continue
		}
		if (m.SenderUserID == userA && m.ReceiverUserID == userB) ||
			(m.SenderUserID == userB && m.ReceiverUserID == userA) {
			out = append(out, m)
		}
	}
	return boundAscending(out, limit), nil
}

func (f *fakeMessageRepo) ListRecentByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range f.messages {
		if m.SenderUserID == userID || m.ReceiverUserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// boundAscending keeps the newest limit messages in chronological order.
func boundAscending(msgs []domain.Message, limit int) []domain.Message {
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}

type fakeMatchRepo struct {
	matches []domain.Match
	// deletedIDs simulates a match row vanishing between channel resolution
	// and the reload inside Send.
	deletedIDs map[uuid.UUID]bool
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Match, error) {
	if f.deletedIDs[id] {
		return nil, nil
	}
	for i := range f.matches {
		if f.matches[i].ID == id {
			m := f.matches[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeMatchRepo) GetActiveByUsers(_ context.Context, userA, userB uuid.UUID) (*domain.Match, error) {
	var best *domain.Match
	for i := range f.matches {
		m := f.matches[i]
		if !isActive(m.Status) {
			continue
		}
		if (m.SenderUserID == userA && m.ReceiverUserID == userB) ||
			(m.SenderUserID == userB && m.ReceiverUserID == userA) {
			if best == nil || m.UpdatedAt.After(best.UpdatedAt) {
				best = &m
			}
		}
	}
	return best, nil
}

func (f *fakeMatchRepo) ListActiveByUser(_ context.Context, userID uuid.UUID) ([]domain.Match, error) {
	var out []domain.Match
	for _, m := range f.matches {
		if isActive(m.Status) && m.HasUser(userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func isActive(status domain.MatchStatus) bool {
	for _, s := range domain.ActiveMatchStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeUserRepo struct {
	users map[uuid.UUID]domain.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeCompanyRepo struct {
	companies []domain.Company
}

func (f *fakeCompanyRepo) GetFirstByUser(_ context.Context, userID uuid.UUID) (*domain.Company, error) {
	var first *domain.Company
	for i := range f.companies {
		c := f.companies[i]
		if c.OwnerID != userID {
			continue
		}
		if first == nil || c.CreatedAt.Before(first.CreatedAt) {
			first = &c
		}
	}
	return first, nil
}

func (f *fakeCompanyRepo) ListFirstByUsers(ctx context.Context, userIDs []uuid.UUID) ([]domain.Company, error) {
	var out []domain.Company
	for _, id := range userIDs {
		c, _ := f.GetFirstByUser(ctx, id)
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// fakeBroker records publishes and delivers them to open subscriptions.
type fakeBroker struct {
	mu        sync.Mutex
	published []publishRecord
	subs      map[string][]*fakeSub
}

type publishRecord struct {
	key string
	msg domain.Message
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subs: make(map[string][]*fakeSub)}
}

func (b *fakeBroker) Subscribe(_ context.Context, key string) (broker.Subscription, error) {
	sub := &fakeSub{ch: make(chan domain.Message, 16)}
	b.mu.Lock()
	b.subs[key] = append(b.subs[key], sub)
	b.mu.Unlock()
	return sub, nil
}

func (b *fakeBroker) Publish(_ context.Context, key string, msg *domain.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, publishRecord{key: key, msg: *msg})
	for _, sub := range b.subs[key] {
		select {
		case sub.ch <- *msg:
		default:
		}
	}
	return nil
}

func (b *fakeBroker) publishedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, len(b.published))
	for i, p := range b.published {
		keys[i] = p.key
	}
	return keys
}

type fakeSub struct {
	ch     chan domain.Message
	closed sync.Once
}

func (s *fakeSub) C() <-chan domain.Message { return s.ch }

func (s *fakeSub) Close() {
	s.closed.Do(func() { close(s.ch) })
}

// fakeNotifier records delivered alerts.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

type sentNotification struct {
	userID uuid.UUID
	note   service.Notification
}

func (n *fakeNotifier) Notify(userID uuid.UUID, note service.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{userID: userID, note: note})
}
