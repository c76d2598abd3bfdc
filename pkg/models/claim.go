package models

import "time"

type ClaimStatus string

const (
	ClaimRequested ClaimStatus = "requested"
	ClaimApproved  ClaimStatus = "approved"
	ClaimRejected  ClaimStatus = "rejected"
	ClaimCancelled ClaimStatus = "cancelled"
)

// IsTerminal reports whether no further transition may leave this status
func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimApproved || s == ClaimRejected || s == ClaimCancelled
}

// IsActive reports whether the claim still ties up the item
func (s ClaimStatus) IsActive() bool {
	return s == ClaimRequested || s == ClaimApproved
}

// Claim is a request by a non-owner to take possession of a shareable item.
// For a given item at most one claim ever reaches "approved"; approving one
// claim forces every other "requested" claim on the item to "rejected" in
// the same transaction.
type Claim struct {
	ID              string      `json:"id" db:"id"`
	ItemID          string      `json:"item_id" db:"item_id"`
	ClaimedByUserID string      `json:"claimed_by_user_id" db:"claimed_by_user_id"`
	Status          ClaimStatus `json:"status" db:"status"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`

	// Populated for display
	Item      *ProductItem `json:"item,omitempty" db:"-"`
	ClaimedBy *UserSummary `json:"claimed_by,omitempty" db:"-"`
}

// ClaimUpdateRequest represents the request payload for a claim transition
type ClaimUpdateRequest struct {
	Status ClaimStatus `json:"status"`
}
