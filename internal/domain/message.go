package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is immutable once created. A nil MatchID means the message belongs
// to the direct channel of its sender/receiver pair; otherwise it belongs to
// the match channel identified by MatchID.
type Message struct {
	ID                uuid.UUID  `json:"id"`
	MatchID           *uuid.UUID `json:"match_id,omitempty"`
	SenderUserID      uuid.UUID  `json:"sender_user_id"`
	ReceiverUserID    uuid.UUID  `json:"receiver_user_id"`
	SenderCompanyID   uuid.UUID  `json:"sender_company_id"`
	ReceiverCompanyID uuid.UUID  `json:"receiver_company_id"`
	Content           string     `json:"content"`
	CreatedAt         time.Time  `json:"created_at"`
}

// OtherParty returns the peer of userID in this message.
func (m *Message) OtherParty(userID uuid.UUID) uuid.UUID {
	if m.SenderUserID == userID {
		return m.ReceiverUserID
	}
	return m.SenderUserID
}
