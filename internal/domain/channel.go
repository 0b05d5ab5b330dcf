package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type ChannelKind string

const (
	ChannelKindMatch  ChannelKind = "match"
	ChannelKindDirect ChannelKind = "direct"
)

// Channel is the derived conversation identity two users share. It is never
// persisted and must be recomputed per request, because a match can appear or
// vanish between two operations on the same pair.
type Channel struct {
	Kind    ChannelKind `json:"type"`
	MatchID *uuid.UUID  `json:"match_id,omitempty"`

	// Canonical pair for direct channels, UserLow < UserHigh.
	UserLow  uuid.UUID `json:"-"`
	UserHigh uuid.UUID `json:"-"`
}

func MatchChannel(matchID uuid.UUID) Channel {
	id := matchID
	return Channel{Kind: ChannelKindMatch, MatchID: &id}
}

// DirectChannel builds the order-independent direct channel for two users.
// Both call directions yield the same channel, so A→B and B→A share one
// history and one delivery key.
func DirectChannel(a, b uuid.UUID) Channel {
	lo, hi := a, b
	if lo.String() > hi.String() {
		lo, hi = hi, lo
	}
	return Channel{Kind: ChannelKindDirect, UserLow: lo, UserHigh: hi}
}

// Key returns the stable broker key for this channel.
func (c Channel) Key() string {
	if c.Kind == ChannelKindMatch {
		return fmt.Sprintf("match:%s", c.MatchID)
	}
	return fmt.Sprintf("direct:%s:%s", c.UserLow, c.UserHigh)
}
