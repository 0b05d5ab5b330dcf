package domain

import (
	"time"

	"github.com/google/uuid"
)

// Company is a user's company profile. A user can exist without one; message
// rows still require company ids on both sides, so PlaceholderCompanyID
// synthesizes a stable stand-in for company-less users.
type Company struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

var placeholderCompanyNS = uuid.MustParse("9f2dca4e-5b1a-4c5f-8f74-2d36a6f3c001")

// PlaceholderCompanyID derives the same placeholder id for a given user on
// every call, so messages from a company-less user stay attributable.
func PlaceholderCompanyID(userID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(placeholderCompanyNS, userID[:])
}
