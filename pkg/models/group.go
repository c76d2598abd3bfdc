package models

import "time"

// FriendGroup is a named circle of trusted contacts owned by one user
type FriendGroup struct {
	ID          string    `json:"id" db:"id"`
	OwnerUserID string    `json:"owner_user_id" db:"owner_user_id"`
	Name        string    `json:"name" db:"name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Populated for display
	Members     []GroupMember `json:"members,omitempty" db:"-"`
	MemberCount int           `json:"member_count" db:"-"`
}

// GroupSummary is the trimmed group shape embedded in membership responses
type GroupSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Summary returns the embeddable shape of a group
func (g *FriendGroup) Summary() *GroupSummary {
	return &GroupSummary{ID: g.ID, Name: g.Name}
}

// GroupMember relates a user to a friend group. The (group, user) pair is
// unique; duplicate joins are rejected at the store level.
type GroupMember struct {
	ID             string    `json:"id" db:"id"`
	GroupID        string    `json:"group_id" db:"group_id"`
	UserID         string    `json:"user_id" db:"user_id"`
	PreferenceTags []string  `json:"preference_tags" db:"preference_tags"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	// Populated for display
	User *UserSummary `json:"user,omitempty" db:"-"`
}

// GroupCreateRequest represents the request payload for group creation
type GroupCreateRequest struct {
	Name string `json:"name"`
}

// MemberPreferencesRequest represents the request payload for updating a
// member's free-text preference tags
type MemberPreferencesRequest struct {
	PreferenceTags []string `json:"preference_tags"`
}
