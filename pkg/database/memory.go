package database

import (
	"sort"
	"strings"
	"sync"
	"time"

	"anti-food-waste-backend/pkg/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory StoreInterface implementation used for
// development and tests. A single mutex guards every operation, so the
// multi-row methods (ApproveClaim, AcceptInvitation) are trivially atomic.
type MemoryStore struct {
	mu sync.RWMutex

	users       map[string]models.User
	categories  map[string]models.Category
	items       map[string]models.ProductItem
	claims      map[string]models.Claim
	groups      map[string]models.FriendGroup
	members     map[string]models.GroupMember
	invitations map[string]models.Invitation
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]models.User),
		categories:  make(map[string]models.Category),
		items:       make(map[string]models.ProductItem),
		claims:      make(map[string]models.Claim),
		groups:      make(map[string]models.FriendGroup),
		members:     make(map[string]models.GroupMember),
		invitations: make(map[string]models.Invitation),
	}
}

// ==== users ====

func (s *MemoryStore) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByID(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := u
	return &user, nil
}

// ==== categories ====

func (s *MemoryStore) CreateCategory(c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()
	s.categories[c.ID] = *c
	return nil
}

func (s *MemoryStore) ListCategoriesByUser(userID string) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetCategory(id string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cat := c
	return &cat, nil
}

func (s *MemoryStore) UpdateCategory(c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return ErrNotFound
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *MemoryStore) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// ==== items ====

func (s *MemoryStore) CreateItem(item *models.ProductItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	stored := *item
	stored.Category = nil
	stored.User = nil
	s.items[item.ID] = stored
	return nil
}

func (s *MemoryStore) GetItem(id string) (*models.ProductItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	item := it
	s.attachItemDetails(&item)
	return &item, nil
}

func (s *MemoryStore) ListItemsByUser(userID, categoryID string) ([]models.ProductItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ProductItem
	for _, it := range s.items {
		if it.UserID != userID {
			continue
		}
		if categoryID != "" && it.CategoryID != categoryID {
			continue
		}
		item := it
		s.attachItemDetails(&item)
		out = append(out, item)
	}
	sortItemsByExpiry(out)
	return out, nil
}

func (s *MemoryStore) ListItemsExpiringBetween(userID string, from, to time.Time) ([]models.ProductItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ProductItem
	for _, it := range s.items {
		if it.UserID != userID {
			continue
		}
		if it.ExpiryDate.Before(from) || it.ExpiryDate.After(to) {
			continue
		}
		item := it
		s.attachItemDetails(&item)
		out = append(out, item)
	}
	sortItemsByExpiry(out)
	return out, nil
}

func (s *MemoryStore) ListItemsExpiredBefore(userID string, before time.Time) ([]models.ProductItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ProductItem
	for _, it := range s.items {
		if it.UserID != userID || !it.ExpiryDate.Before(before) {
			continue
		}
		item := it
		s.attachItemDetails(&item)
		out = append(out, item)
	}
	sortItemsByExpiry(out)
	return out, nil
}

func (s *MemoryStore) UpdateItem(item *models.ProductItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return ErrNotFound
	}
	item.UpdatedAt = time.Now()
	stored := *item
	stored.Category = nil
	stored.User = nil
	s.items[item.ID] = stored
	return nil
}

func (s *MemoryStore) DeleteItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) ListSharedItems(viewerUserID, nameFilter, categoryFilter string) ([]models.SharedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Items with at least one approved claim are excluded outright
	approved := make(map[string]bool)
	active := make(map[string]bool)
	for _, c := range s.claims {
		if c.Status == models.ClaimApproved {
			approved[c.ItemID] = true
		}
		if c.Status.IsActive() {
			active[c.ItemID] = true
		}
	}

	var out []models.SharedItem
	for _, it := range s.items {
		if !it.IsShareable || it.IsClaimed || it.UserID == viewerUserID || approved[it.ID] {
			continue
		}
		if nameFilter != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(nameFilter)) {
			continue
		}
		if categoryFilter != "" {
			cat, ok := s.categories[it.CategoryID]
			if !ok || !strings.Contains(strings.ToLower(cat.Name), strings.ToLower(categoryFilter)) {
				continue
			}
		}
		item := it
		s.attachItemDetails(&item)
		out = append(out, models.SharedItem{
			ProductItem:      item,
			HasApprovedClaim: false,
			IsClaimable:      !active[it.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out, nil
}

// ==== claims ====

func (s *MemoryStore) CreateClaim(claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if claim.ID == "" {
		claim.ID = uuid.New().String()
	}
	claim.CreatedAt = time.Now()
	claim.UpdatedAt = claim.CreatedAt
	stored := *claim
	stored.Item = nil
	stored.ClaimedBy = nil
	s.claims[claim.ID] = stored
	s.attachClaimDetails(claim)
	return nil
}

func (s *MemoryStore) GetClaim(id string) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	claim := c
	s.attachClaimDetails(&claim)
	return &claim, nil
}

func (s *MemoryStore) ListActiveClaimsByItem(itemID string) ([]models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Claim
	for _, c := range s.claims {
		if c.ItemID == itemID && c.Status.IsActive() {
			claim := c
			s.attachClaimDetails(&claim)
			out = append(out, claim)
		}
	}
	sortClaimsNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) GetActiveClaimByItemAndUser(itemID, userID string) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.claims {
		if c.ItemID == itemID && c.ClaimedByUserID == userID && c.Status.IsActive() {
			claim := c
			s.attachClaimDetails(&claim)
			return &claim, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListIncomingClaims(ownerUserID string) ([]models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Claim
	for _, c := range s.claims {
		it, ok := s.items[c.ItemID]
		if !ok || it.UserID != ownerUserID || !c.Status.IsActive() {
			continue
		}
		claim := c
		s.attachClaimDetails(&claim)
		out = append(out, claim)
	}
	sortClaimsNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListClaimsByUser(userID string) ([]models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Claim
	for _, c := range s.claims {
		if c.ClaimedByUserID != userID {
			continue
		}
		claim := c
		s.attachClaimDetails(&claim)
		out = append(out, claim)
	}
	sortClaimsNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) UpdateClaimStatus(claimID string, status models.ClaimStatus) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.claims[claimID]
	if !ok {
		return nil, ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	s.claims[claimID] = c

	claim := c
	s.attachClaimDetails(&claim)
	return &claim, nil
}

func (s *MemoryStore) ApproveClaim(claimID string) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.claims[claimID]
	if !ok {
		return nil, ErrNotFound
	}

	now := time.Now()

	// Approve the winner
	c.Status = models.ClaimApproved
	c.UpdatedAt = now
	s.claims[claimID] = c

	// Mark the item claimed
	if it, ok := s.items[c.ItemID]; ok {
		it.IsClaimed = true
		it.UpdatedAt = now
		s.items[it.ID] = it
	}

	// Reject every other requested claim on the same item
	for id, other := range s.claims {
		if id != claimID && other.ItemID == c.ItemID && other.Status == models.ClaimRequested {
			other.Status = models.ClaimRejected
			other.UpdatedAt = now
			s.claims[id] = other
		}
	}

	claim := c
	s.attachClaimDetails(&claim)
	return &claim, nil
}

// ==== groups ====

func (s *MemoryStore) CreateGroup(g *models.FriendGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	g.CreatedAt = time.Now()
	stored := *g
	stored.Members = nil
	s.groups[g.ID] = stored
	return nil
}

func (s *MemoryStore) GetGroup(id string) (*models.FriendGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	group := g
	s.attachGroupDetails(&group)
	return &group, nil
}

func (s *MemoryStore) ListGroupsByOwner(ownerUserID string) ([]models.FriendGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.FriendGroup
	for _, g := range s.groups {
		if g.OwnerUserID != ownerUserID {
			continue
		}
		group := g
		s.attachGroupDetails(&group)
		out = append(out, group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) IsGroupVisibleTo(groupID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return false, ErrNotFound
	}
	if g.OwnerUserID == userID {
		return true, nil
	}
	for _, m := range s.members {
		if m.GroupID == groupID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListGroupMembers(groupID string) ([]models.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.GroupMember
	for _, m := range s.members {
		if m.GroupID != groupID {
			continue
		}
		member := m
		s.attachMemberDetails(&member)
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetGroupMember(memberID string) (*models.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[memberID]
	if !ok {
		return nil, ErrNotFound
	}
	member := m
	s.attachMemberDetails(&member)
	return &member, nil
}

func (s *MemoryStore) GetMemberByGroupAndEmail(groupID, email string) (*models.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members {
		if m.GroupID != groupID {
			continue
		}
		if u, ok := s.users[m.UserID]; ok && u.Email == email {
			member := m
			s.attachMemberDetails(&member)
			return &member, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetMemberByGroupAndUser(groupID, userID string) (*models.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members {
		if m.GroupID == groupID && m.UserID == userID {
			member := m
			s.attachMemberDetails(&member)
			return &member, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateMemberPreferences(memberID string, tags []string) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberID]
	if !ok {
		return nil, ErrNotFound
	}
	if tags == nil {
		tags = []string{}
	}
	m.PreferenceTags = tags
	s.members[memberID] = m

	member := m
	s.attachMemberDetails(&member)
	return &member, nil
}

// ==== invitations ====

func (s *MemoryStore) CreateInvitation(inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.invitations {
		if existing.Token == inv.Token {
			return ErrDuplicate
		}
	}

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.CreatedAt = time.Now()
	s.invitations[inv.ID] = *inv
	return nil
}

func (s *MemoryStore) GetInvitationByToken(token string) (*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invitations {
		if inv.Token == token {
			invitation := inv
			return &invitation, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateInvitationStatus(invitationID string, status models.InvitationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invitations[invitationID]
	if !ok {
		return ErrNotFound
	}
	inv.Status = status
	s.invitations[invitationID] = inv
	return nil
}

func (s *MemoryStore) AcceptInvitation(invitationID, userID string) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invitations[invitationID]
	if !ok {
		return nil, ErrNotFound
	}

	// Uniqueness of (group, user); neither write happens on violation
	for _, m := range s.members {
		if m.GroupID == inv.GroupID && m.UserID == userID {
			return nil, ErrDuplicate
		}
	}

	member := models.GroupMember{
		ID:             uuid.New().String(),
		GroupID:        inv.GroupID,
		UserID:         userID,
		PreferenceTags: []string{},
		CreatedAt:      time.Now(),
	}
	s.members[member.ID] = member

	inv.Status = models.InvitationAccepted
	inv.RedeemedByUserID = &userID
	s.invitations[invitationID] = inv

	s.attachMemberDetails(&member)
	return &member, nil
}

// ==== health ====

func (s *MemoryStore) HealthCheck() error { return nil }

func (s *MemoryStore) Close() error { return nil }

// ==== helpers (callers hold at least the read lock) ====

func (s *MemoryStore) attachItemDetails(item *models.ProductItem) {
	if cat, ok := s.categories[item.CategoryID]; ok {
		c := cat
		item.Category = &c
	}
	if u, ok := s.users[item.UserID]; ok {
		item.User = u.Summary()
	}
}

func (s *MemoryStore) attachClaimDetails(claim *models.Claim) {
	if it, ok := s.items[claim.ItemID]; ok {
		item := it
		s.attachItemDetails(&item)
		claim.Item = &item
	}
	if u, ok := s.users[claim.ClaimedByUserID]; ok {
		claim.ClaimedBy = u.Summary()
	}
}

func (s *MemoryStore) attachMemberDetails(member *models.GroupMember) {
	if u, ok := s.users[member.UserID]; ok {
		member.User = u.Summary()
	}
}

func (s *MemoryStore) attachGroupDetails(group *models.FriendGroup) {
	var members []models.GroupMember
	for _, m := range s.members {
		if m.GroupID != group.ID {
			continue
		}
		member := m
		s.attachMemberDetails(&member)
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })
	group.Members = members
	group.MemberCount = len(members)
}

func sortItemsByExpiry(items []models.ProductItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ExpiryDate.Before(items[j].ExpiryDate) })
}

func sortClaimsNewestFirst(claims []models.Claim) {
	sort.Slice(claims, func(i, j int) bool { return claims[i].CreatedAt.After(claims[j].CreatedAt) })
}
