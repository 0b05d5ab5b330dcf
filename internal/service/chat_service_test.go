package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CTNMhh/mpoint/internal/domain"
	"github.com/CTNMhh/mpoint/internal/service"
)

type chatFixture struct {
	messages  *fakeMessageRepo
	matches   *fakeMatchRepo
	users     *fakeUserRepo
	companies *fakeCompanyRepo
	broker    *fakeBroker
	notifier  *fakeNotifier
	svc       *service.ChatService
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		messages:  &fakeMessageRepo{},
		matches:   &fakeMatchRepo{deletedIDs: make(map[uuid.UUID]bool)},
		users:     &fakeUserRepo{users: make(map[uuid.UUID]domain.User)},
		companies: &fakeCompanyRepo{},
		broker:    newFakeBroker(),
		notifier:  &fakeNotifier{},
	}
	f.svc = service.NewChatService(f.messages, f.matches, f.users, f.companies, f.broker, zap.NewNop())
	f.svc.SetNotifier(f.notifier)
	return f
}

func TestResolveChannelDirectSymmetry(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	chAB, err := f.svc.ResolveChannel(ctx, alice, bob)
	require.NoError(t, err)
	chBA, err := f.svc.ResolveChannel(ctx, bob, alice)
	require.NoError(t, err)

	assert.Equal(t, domain.ChannelKindDirect, chAB.Kind)
	assert.Equal(t, chAB.Key(), chBA.Key(), "both directions must share one direct channel")
}

func TestResolveChannelMatchPrecedence(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	older := domain.Match{
		ID: uuid.New(), SenderUserID: alice, ReceiverUserID: bob,
		Status: domain.MatchStatusPending, UpdatedAt: time.Now().Add(-time.Hour),
	}
	newer := domain.Match{
		ID: uuid.New(), SenderUserID: bob, ReceiverUserID: alice,
		Status: domain.MatchStatusConnected, UpdatedAt: time.Now(),
	}
	f.matches.matches = []domain.Match{older, newer}

	for _, pair := range [][2]uuid.UUID{{alice, bob}, {bob, alice}} {
		ch, err := f.svc.ResolveChannel(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, domain.ChannelKindMatch, ch.Kind)
		require.NotNil(t, ch.MatchID)
		assert.Equal(t, newer.ID, *ch.MatchID, "most recently updated active match wins")
	}
}

func TestResolveChannelRejectsSelfAndMissingPeer(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := uuid.New()

	_, err := f.svc.ResolveChannel(ctx, alice, alice)
	assert.ErrorIs(t, err, service.ErrSelfChat)

	_, err = f.svc.ResolveChannel(ctx, alice, uuid.Nil)
	assert.ErrorIs(t, err, service.ErrMissingPeer)
}

func TestSendRejectsWhitespaceContent(t *testing.T) {
	f := newChatFixture()
	alice, bob := uuid.New(), uuid.New()

	_, err := f.svc.Send(context.Background(), alice, service.SendInput{
		PeerUserID: bob, Content: "   \n\t ",
	})

	assert.ErrorIs(t, err, service.ErrEmptyContent)
	assert.Empty(t, f.messages.messages, "nothing may be persisted")
	assert.Empty(t, f.broker.publishedKeys(), "nothing may be published")
}

func TestSendRejectsSelf(t *testing.T) {
	f := newChatFixture()
	alice := uuid.New()

	_, err := f.svc.Send(context.Background(), alice, service.SendInput{
		PeerUserID: alice, Content: "hey me",
	})

	assert.ErrorIs(t, err, service.ErrSelfChat)
	assert.Empty(t, f.messages.messages)
}

func TestSendDirect(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	f.companies.companies = []domain.Company{
		{ID: uuid.New(), OwnerID: alice, Name: "Hanse Trading GmbH", CreatedAt: time.Now()},
	}

	msg, err := f.svc.Send(ctx, alice, service.SendInput{PeerUserID: bob, Content: "  moin  "})
	require.NoError(t, err)

	assert.Nil(t, msg.MatchID)
	assert.Equal(t, "moin", msg.Content, "content is trimmed")
	assert.Equal(t, f.companies.companies[0].ID, msg.SenderCompanyID)
	assert.Equal(t, domain.PlaceholderCompanyID(bob), msg.ReceiverCompanyID,
		"company-less receiver gets the synthesized placeholder")

	require.Len(t, f.messages.messages, 1)

	expectedKey := domain.DirectChannel(alice, bob).Key()
	assert.Equal(t, []string{expectedKey}, f.broker.publishedKeys())

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, bob, f.notifier.sent[0].userID)
	assert.Equal(t, "Hanse Trading GmbH", f.notifier.sent[0].note.Title)
	assert.Contains(t, f.notifier.sent[0].note.Link, alice.String())
}

func TestSendMatchChannel(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	match := domain.Match{
		ID: uuid.New(), SenderUserID: bob, ReceiverUserID: alice,
		Status: domain.MatchStatusConnected, UpdatedAt: time.Now(),
	}
	f.matches.matches = []domain.Match{match}

	msg, err := f.svc.Send(ctx, alice, service.SendInput{PeerUserID: bob, Content: "hello"})
	require.NoError(t, err)

	require.NotNil(t, msg.MatchID)
	assert.Equal(t, match.ID, *msg.MatchID)
	assert.Equal(t, []string{domain.MatchChannel(match.ID).Key()}, f.broker.publishedKeys())
}

func TestSendMatchVanishedBetweenResolveAndReload(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	match := domain.Match{
		ID: uuid.New(), SenderUserID: alice, ReceiverUserID: bob,
		Status: domain.MatchStatusPending, UpdatedAt: time.Now(),
	}
	f.matches.matches = []domain.Match{match}
	f.matches.deletedIDs[match.ID] = true

	_, err := f.svc.Send(ctx, alice, service.SendInput{PeerUserID: bob, Content: "hello"})

	assert.ErrorIs(t, err, service.ErrMatchNotFound)
	assert.Empty(t, f.messages.messages)
	assert.Empty(t, f.broker.publishedKeys())
}

func TestSendNotificationPreviewTruncated(t *testing.T) {
	f := newChatFixture()
	alice, bob := uuid.New(), uuid.New()

	long := strings.Repeat("ä", 300)
	_, err := f.svc.Send(context.Background(), alice, service.SendInput{PeerUserID: bob, Content: long})
	require.NoError(t, err)

	require.Len(t, f.notifier.sent, 1)
	body := f.notifier.sent[0].note.Body
	assert.Less(t, len([]rune(body)), 90)
	assert.True(t, strings.HasSuffix(body, "..."))
}

func TestHistoryDirect(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	base := time.Now().Add(-time.Hour)

	f.messages.messages = []domain.Message{
		directMessage(bob, alice, "second", base.Add(2*time.Minute)),
		directMessage(alice, bob, "first", base.Add(1*time.Minute)),
		directMessage(alice, carol, "other pair", base.Add(3*time.Minute)),
	}

	ch, msgs, err := f.svc.History(ctx, alice, bob)
	require.NoError(t, err)

	assert.Equal(t, domain.ChannelKindDirect, ch.Kind)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestHistoryMatchOnlySeesMatchMessages(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	match := domain.Match{
		ID: uuid.New(), SenderUserID: alice, ReceiverUserID: bob,
		Status: domain.MatchStatusConnected, UpdatedAt: time.Now(),
	}
	f.matches.matches = []domain.Match{match}

	matchMsg := directMessage(alice, bob, "in match", time.Now())
	matchMsg.MatchID = &match.ID
	f.messages.messages = []domain.Message{
		matchMsg,
		directMessage(alice, bob, "old direct", time.Now().Add(-time.Minute)),
	}

	ch, msgs, err := f.svc.History(ctx, alice, bob)
	require.NoError(t, err)

	assert.Equal(t, domain.ChannelKindMatch, ch.Kind)
	require.Len(t, msgs, 1)
	assert.Equal(t, "in match", msgs[0].Content)
}

func TestHistoryRejectsSelf(t *testing.T) {
	f := newChatFixture()
	alice := uuid.New()

	_, _, err := f.svc.History(context.Background(), alice, alice)
	assert.ErrorIs(t, err, service.ErrSelfChat)
}

func TestStreamReceivesSubsequentSend(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	sub, ch, err := f.svc.Stream(ctx, bob, alice)
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, domain.ChannelKindDirect, ch.Kind)

	sent, err := f.svc.Send(ctx, alice, service.SendInput{PeerUserID: bob, Content: "live"})
	require.NoError(t, err)

	select {
	case got := <-sub.C():
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "live", got.Content)
	case <-time.After(time.Second):
		t.Fatal("published message never reached the subscription")
	}
}

func TestUserSummary(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	withCompany := uuid.New()
	plain := uuid.New()
	f.users.users[withCompany] = domain.User{ID: withCompany, Username: "anna", DisplayName: "Anna K."}
	f.users.users[plain] = domain.User{ID: plain, Username: "bert"}
	f.companies.companies = []domain.Company{
		{ID: uuid.New(), OwnerID: withCompany, Name: "Nordwind Logistik", CreatedAt: time.Now()},
	}

	summary, err := f.svc.UserSummary(ctx, withCompany)
	require.NoError(t, err)
	assert.Equal(t, "Nordwind Logistik", summary.Name)
	require.NotNil(t, summary.CompanyName)
	assert.Equal(t, "Nordwind Logistik", *summary.CompanyName)

	summary, err = f.svc.UserSummary(ctx, plain)
	require.NoError(t, err)
	assert.Equal(t, "bert", summary.Name, "falls back to username without company or display name")
	assert.Nil(t, summary.CompanyName)

	_, err = f.svc.UserSummary(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func directMessage(from, to uuid.UUID, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:                uuid.New(),
		SenderUserID:      from,
		ReceiverUserID:    to,
		SenderCompanyID:   domain.PlaceholderCompanyID(from),
		ReceiverCompanyID: domain.PlaceholderCompanyID(to),
		Content:           content,
		CreatedAt:         at,
	}
}
