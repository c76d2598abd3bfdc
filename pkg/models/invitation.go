package models

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// InvitationTTL is how long a minted invitation stays redeemable.
// Expiry is detected lazily at redemption time; there is no sweep.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation is a one-time, time-bounded authorization to join a friend
// group, addressed to a specific email and carried by an opaque token.
type Invitation struct {
	ID               string           `json:"id" db:"id"`
	GroupID          string           `json:"group_id" db:"group_id"`
	Email            string           `json:"email" db:"email"`
	Token            string           `json:"token" db:"token"`
	Status           InvitationStatus `json:"status" db:"status"`
	ExpiresAt        time.Time        `json:"expires_at" db:"expires_at"`
	RedeemedByUserID *string          `json:"redeemed_by_user_id,omitempty" db:"redeemed_by_user_id"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// InviteRequest represents the request payload for minting an invitation
type InviteRequest struct {
	Email string `json:"email"`
}

// InviteResponse pairs the stored invitation with the redemption link
type InviteResponse struct {
	Invitation *Invitation `json:"invitation"`
	InviteLink string      `json:"invite_link"`
}

// AcceptInvitationRequest represents the request payload for redemption
type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

// AcceptInvitationResponse is returned on successful redemption
type AcceptInvitationResponse struct {
	Message    string        `json:"message"`
	Group      *GroupSummary `json:"group"`
	Membership *GroupMember  `json:"membership"`
}
