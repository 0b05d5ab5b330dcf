package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConversationSummary is the per-peer aggregate behind the chat list view.
// It is recomputed per request and never persisted.
//
// HasMatch is true when any message in the scanned window was ever linked to
// a match; ChannelType is "match" only while a currently CONNECTED match
// exists. The two deliberately diverge for peers whose match was deleted or
// never completed.
type ConversationSummary struct {
	PeerUserID  uuid.UUID   `json:"peer_user_id"`
	Name        string      `json:"name"`
	CompanyName *string     `json:"company_name,omitempty"`
	ChannelType ChannelKind `json:"channel_type"`
	HasMatch    bool        `json:"has_match"`
	MatchID     *uuid.UUID  `json:"match_id,omitempty"`
	LastAt      time.Time   `json:"last_at"`
	LastContent string      `json:"last_content"`
}
