package domain

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusPending            MatchStatus = "PENDING"
	MatchStatusAcceptedBySender   MatchStatus = "ACCEPTED_BY_SENDER"
	MatchStatusAcceptedByReceiver MatchStatus = "ACCEPTED_BY_RECEIVER"
	MatchStatusConnected          MatchStatus = "CONNECTED"
)

// ActiveMatchStatuses are the statuses under which a match still carries a
// live match channel. A deleted match row stops accepting new messages;
// existing messages keep their match_id as history.
var ActiveMatchStatuses = []MatchStatus{
	MatchStatusPending,
	MatchStatusAcceptedBySender,
	MatchStatusAcceptedByReceiver,
	MatchStatusConnected,
}

// Match is a connection request between two users. This core only reads it.
type Match struct {
	ID             uuid.UUID   `json:"id"`
	SenderUserID   uuid.UUID   `json:"sender_user_id"`
	ReceiverUserID uuid.UUID   `json:"receiver_user_id"`
	Status         MatchStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (m *Match) IsConnected() bool {
	return m.Status == MatchStatusConnected
}

// HasUser reports whether userID is one of the two match parties.
func (m *Match) HasUser(userID uuid.UUID) bool {
	return m.SenderUserID == userID || m.ReceiverUserID == userID
}

// OtherUser returns the match party that is not userID.
func (m *Match) OtherUser(userID uuid.UUID) uuid.UUID {
	if m.SenderUserID == userID {
		return m.ReceiverUserID
	}
	return m.SenderUserID
}
