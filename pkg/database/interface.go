package database

import (
	"fmt"
	"time"

	"anti-food-waste-backend/pkg/models"
)

// StoreInterface defines the persistence contract for the service.
//
// ApproveClaim and AcceptInvitation are the two multi-row operations with
// real invariants behind them; implementations MUST apply their writes as a
// single atomic unit (transaction or equivalent). Everything else is
// single-row.
type StoreInterface interface {
	// Users
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)

	// Categories
	CreateCategory(c *models.Category) error
	ListCategoriesByUser(userID string) ([]models.Category, error)
	GetCategory(id string) (*models.Category, error)
	UpdateCategory(c *models.Category) error
	DeleteCategory(id string) error

	// Items
	CreateItem(item *models.ProductItem) error
	GetItem(id string) (*models.ProductItem, error)
	ListItemsByUser(userID, categoryID string) ([]models.ProductItem, error)
	// ListItemsExpiringBetween returns the user's items whose expiry date
	// falls in [from, to], ordered by expiry date ascending.
	ListItemsExpiringBetween(userID string, from, to time.Time) ([]models.ProductItem, error)
	ListItemsExpiredBefore(userID string, before time.Time) ([]models.ProductItem, error)
	UpdateItem(item *models.ProductItem) error
	DeleteItem(id string) error
	// ListSharedItems returns shareable, unclaimed items not owned by
	// viewerUserID and without any approved claim, annotated with claim
	// status. Filters are case-insensitive substring matches; empty means
	// no filter.
	ListSharedItems(viewerUserID, nameFilter, categoryFilter string) ([]models.SharedItem, error)

	// Claims
	CreateClaim(claim *models.Claim) error
	GetClaim(id string) (*models.Claim, error)
	// ListActiveClaimsByItem returns claims on the item whose status is
	// requested or approved.
	ListActiveClaimsByItem(itemID string) ([]models.Claim, error)
	// GetActiveClaimByItemAndUser returns the user's requested/approved
	// claim on the item, or ErrNotFound.
	GetActiveClaimByItemAndUser(itemID, userID string) (*models.Claim, error)
	ListIncomingClaims(ownerUserID string) ([]models.Claim, error)
	ListClaimsByUser(userID string) ([]models.Claim, error)
	// UpdateClaimStatus performs a single-row status update (rejected or
	// cancelled paths).
	UpdateClaimStatus(claimID string, status models.ClaimStatus) (*models.Claim, error)
	// ApproveClaim atomically sets the claim to approved, marks the item
	// claimed, and rejects every other requested claim on the same item.
	ApproveClaim(claimID string) (*models.Claim, error)

	// Groups
	CreateGroup(g *models.FriendGroup) error
	GetGroup(id string) (*models.FriendGroup, error)
	ListGroupsByOwner(ownerUserID string) ([]models.FriendGroup, error)
	// IsGroupVisibleTo reports whether the user owns the group or is a
	// member of it.
	IsGroupVisibleTo(groupID, userID string) (bool, error)
	ListGroupMembers(groupID string) ([]models.GroupMember, error)
	GetGroupMember(memberID string) (*models.GroupMember, error)
	// GetMemberByGroupAndEmail looks up a membership through the member's
	// user email (used when minting invitations).
	GetMemberByGroupAndEmail(groupID, email string) (*models.GroupMember, error)
	GetMemberByGroupAndUser(groupID, userID string) (*models.GroupMember, error)
	UpdateMemberPreferences(memberID string, tags []string) (*models.GroupMember, error)

	// Invitations
	CreateInvitation(inv *models.Invitation) error
	GetInvitationByToken(token string) (*models.Invitation, error)
	// UpdateInvitationStatus performs a single-row status update (the lazy
	// expiry write, and marking consumed invitations accepted).
	UpdateInvitationStatus(invitationID string, status models.InvitationStatus) error
	// AcceptInvitation atomically inserts the membership row and marks the
	// invitation accepted with the redeeming user. Returns ErrDuplicate if
	// the (group, user) pair already exists; in that case neither write is
	// applied.
	AcceptInvitation(invitationID, userID string) (*models.GroupMember, error)

	// Health check
	HealthCheck() error

	// Close releases the underlying connection
	Close() error
}

// StoreConfig selects and configures a store implementation
type StoreConfig struct {
	UseMemoryStore bool
	PostgresDSN    string
	Debug          bool
}

// NewStore picks a store implementation from config: PostgreSQL when a DSN
// is present, otherwise the in-memory store (development only).
func NewStore(config StoreConfig) StoreInterface {
	if !config.UseMemoryStore && config.PostgresDSN != "" {
		fmt.Printf("Using PostgreSQL store\n")
		return NewPostgresStore(config.PostgresDSN)
	}

	fmt.Printf("Using in-memory store (data is not persisted)\n")
	return NewMemoryStore()
}
