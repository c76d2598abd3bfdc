package models

import "time"

// Category groups a user's items (e.g. dairy, produce)
type Category struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CategoryCreateRequest represents the request payload for category
// creation and rename
type CategoryCreateRequest struct {
	Name string `json:"name"`
}

// ProductItem represents a tracked perishable item
type ProductItem struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	CategoryID  string    `json:"category_id" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Quantity    int       `json:"quantity" db:"quantity"`
	ExpiryDate  time.Time `json:"expiry_date" db:"expiry_date"`
	IsShareable bool      `json:"is_shareable" db:"is_shareable"`
	IsClaimed   bool      `json:"is_claimed" db:"is_claimed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Populated for display, not stored on the items table
	Category *Category    `json:"category,omitempty" db:"-"`
	User     *UserSummary `json:"user,omitempty" db:"-"`
}

// SharedItem is a ProductItem annotated with its claim status for the
// public claimable feed
type SharedItem struct {
	ProductItem
	HasApprovedClaim bool `json:"has_approved_claim"`
	IsClaimable      bool `json:"is_claimable"`
}

// ItemCreateRequest represents the request payload for item creation
type ItemCreateRequest struct {
	Name        string `json:"name"`
	CategoryID  string `json:"category_id"`
	Quantity    int    `json:"quantity"`
	ExpiryDate  string `json:"expiry_date"`
	IsShareable bool   `json:"is_shareable"`
}

// ItemUpdateRequest represents a partial item update; nil fields are left
// untouched
type ItemUpdateRequest struct {
	Name        *string `json:"name"`
	CategoryID  *string `json:"category_id"`
	Quantity    *int    `json:"quantity"`
	ExpiryDate  *string `json:"expiry_date"`
	IsShareable *bool   `json:"is_shareable"`
}
