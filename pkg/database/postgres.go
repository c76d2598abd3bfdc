package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"anti-food-waste-backend/pkg/models"

	"github.com/lib/pq"
)

// PostgresStore is the PostgreSQL StoreInterface implementation
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a PostgreSQL connection and verifies it
func NewPostgresStore(dsn string) StoreInterface {
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		panic(fmt.Sprintf("Failed to open PostgreSQL connection: %v", err))
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		panic(fmt.Sprintf("Failed to ping PostgreSQL: %v", err))
	}

	return &PostgresStore{db: db}
}

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// ==== users ====

func (s *PostgresStore) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(query, user.Email, user.Password).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u models.User
	err := s.db.QueryRow(query, email).
		Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var u models.User
	err := s.db.QueryRow(query, id).
		Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// ==== categories ====

func (s *PostgresStore) CreateCategory(c *models.Category) error {
	query := `
		INSERT INTO categories (user_id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`
	if err := s.db.QueryRow(query, c.UserID, c.Name).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCategoriesByUser(userID string) ([]models.Category, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name ASC
	`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCategory(id string) (*models.Category, error) {
	query := `SELECT id, user_id, name, created_at FROM categories WHERE id = $1`
	var c models.Category
	err := s.db.QueryRow(query, id).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) UpdateCategory(c *models.Category) error {
	res, err := s.db.Exec(`UPDATE categories SET name = $1 WHERE id = $2`, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteCategory(id string) error {
	res, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==== items ====

const itemColumns = `
	i.id, i.user_id, i.category_id, i.name, i.quantity, i.expiry_date,
	i.is_shareable, i.is_claimed, i.created_at, i.updated_at,
	c.id, c.user_id, c.name, c.created_at,
	u.id, u.email
`

const itemJoins = `
	FROM product_items i
	JOIN categories c ON c.id = i.category_id
	JOIN users u ON u.id = i.user_id
`

func scanItem(scanner interface{ Scan(...interface{}) error }) (*models.ProductItem, error) {
	var it models.ProductItem
	var cat models.Category
	var owner models.UserSummary
	err := scanner.Scan(
		&it.ID, &it.UserID, &it.CategoryID, &it.Name, &it.Quantity, &it.ExpiryDate,
		&it.IsShareable, &it.IsClaimed, &it.CreatedAt, &it.UpdatedAt,
		&cat.ID, &cat.UserID, &cat.Name, &cat.CreatedAt,
		&owner.ID, &owner.Email,
	)
	if err != nil {
		return nil, err
	}
	it.Category = &cat
	it.User = &owner
	return &it, nil
}

func (s *PostgresStore) CreateItem(item *models.ProductItem) error {
	query := `
		INSERT INTO product_items
			(user_id, category_id, name, quantity, expiry_date, is_shareable, is_claimed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(query,
		item.UserID, item.CategoryID, item.Name, item.Quantity, item.ExpiryDate, item.IsShareable).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetItem(id string) (*models.ProductItem, error) {
	query := `SELECT ` + itemColumns + itemJoins + ` WHERE i.id = $1`
	item, err := scanItem(s.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) queryItems(query string, args ...interface{}) ([]models.ProductItem, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var out []models.ProductItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListItemsByUser(userID, categoryID string) ([]models.ProductItem, error) {
	query := `SELECT ` + itemColumns + itemJoins + ` WHERE i.user_id = $1`
	args := []interface{}{userID}
	if categoryID != "" {
		query += ` AND i.category_id = $2`
		args = append(args, categoryID)
	}
	query += ` ORDER BY i.expiry_date ASC`
	return s.queryItems(query, args...)
}

func (s *PostgresStore) ListItemsExpiringBetween(userID string, from, to time.Time) ([]models.ProductItem, error) {
	query := `SELECT ` + itemColumns + itemJoins + `
		WHERE i.user_id = $1 AND i.expiry_date >= $2 AND i.expiry_date <= $3
		ORDER BY i.expiry_date ASC`
	return s.queryItems(query, userID, from, to)
}

func (s *PostgresStore) ListItemsExpiredBefore(userID string, before time.Time) ([]models.ProductItem, error) {
	query := `SELECT ` + itemColumns + itemJoins + `
		WHERE i.user_id = $1 AND i.expiry_date < $2
		ORDER BY i.expiry_date ASC`
	return s.queryItems(query, userID, before)
}

func (s *PostgresStore) UpdateItem(item *models.ProductItem) error {
	query := `
		UPDATE product_items
		SET category_id = $1, name = $2, quantity = $3, expiry_date = $4,
		    is_shareable = $5, is_claimed = $6, updated_at = NOW()
		WHERE id = $7
	`
	res, err := s.db.Exec(query,
		item.CategoryID, item.Name, item.Quantity, item.ExpiryDate,
		item.IsShareable, item.IsClaimed, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteItem(id string) error {
	res, err := s.db.Exec(`DELETE FROM product_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListSharedItems(viewerUserID, nameFilter, categoryFilter string) ([]models.SharedItem, error) {
	// The approved-claim exclusion and the live-claim annotation are both
	// computed in the same statement; the feed stays a point-in-time read.
	query := `SELECT ` + itemColumns + `,
		EXISTS (
			SELECT 1 FROM claims cl
			WHERE cl.item_id = i.id AND cl.status IN ('requested', 'approved')
		) AS has_active_claim
	` + itemJoins + `
		WHERE i.is_shareable = TRUE
		  AND i.is_claimed = FALSE
		  AND i.user_id <> $1
		  AND NOT EXISTS (
			SELECT 1 FROM claims cl
			WHERE cl.item_id = i.id AND cl.status = 'approved'
		  )
	`
	args := []interface{}{viewerUserID}
	if nameFilter != "" {
		args = append(args, "%"+nameFilter+"%")
		query += fmt.Sprintf(" AND i.name ILIKE $%d", len(args))
	}
	if categoryFilter != "" {
		args = append(args, "%"+categoryFilter+"%")
		query += fmt.Sprintf(" AND c.name ILIKE $%d", len(args))
	}
	query += ` ORDER BY i.expiry_date ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared items: %w", err)
	}
	defer rows.Close()

	var out []models.SharedItem
	for rows.Next() {
		var it models.ProductItem
		var cat models.Category
		var owner models.UserSummary
		var hasActiveClaim bool
		err := rows.Scan(
			&it.ID, &it.UserID, &it.CategoryID, &it.Name, &it.Quantity, &it.ExpiryDate,
			&it.IsShareable, &it.IsClaimed, &it.CreatedAt, &it.UpdatedAt,
			&cat.ID, &cat.UserID, &cat.Name, &cat.CreatedAt,
			&owner.ID, &owner.Email,
			&hasActiveClaim,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shared item: %w", err)
		}
		it.Category = &cat
		it.User = &owner
		out = append(out, models.SharedItem{
			ProductItem:      it,
			HasApprovedClaim: false,
			IsClaimable:      !hasActiveClaim,
		})
	}
	return out, rows.Err()
}

// ==== claims ====

const claimColumns = `
	cl.id, cl.item_id, cl.claimed_by_user_id, cl.status, cl.created_at, cl.updated_at,
	i.id, i.user_id, i.category_id, i.name, i.quantity, i.expiry_date,
	i.is_shareable, i.is_claimed, i.created_at, i.updated_at,
	c.id, c.user_id, c.name, c.created_at,
	cu.id, cu.email
`

const claimJoins = `
	FROM claims cl
	JOIN product_items i ON i.id = cl.item_id
	JOIN categories c ON c.id = i.category_id
	JOIN users cu ON cu.id = cl.claimed_by_user_id
`

func scanClaim(scanner interface{ Scan(...interface{}) error }) (*models.Claim, error) {
	var claim models.Claim
	var it models.ProductItem
	var cat models.Category
	var claimant models.UserSummary
	err := scanner.Scan(
		&claim.ID, &claim.ItemID, &claim.ClaimedByUserID, &claim.Status, &claim.CreatedAt, &claim.UpdatedAt,
		&it.ID, &it.UserID, &it.CategoryID, &it.Name, &it.Quantity, &it.ExpiryDate,
		&it.IsShareable, &it.IsClaimed, &it.CreatedAt, &it.UpdatedAt,
		&cat.ID, &cat.UserID, &cat.Name, &cat.CreatedAt,
		&claimant.ID, &claimant.Email,
	)
	if err != nil {
		return nil, err
	}
	it.Category = &cat
	claim.Item = &it
	claim.ClaimedBy = &claimant
	return &claim, nil
}

func (s *PostgresStore) CreateClaim(claim *models.Claim) error {
	query := `
		INSERT INTO claims (item_id, claimed_by_user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(query, claim.ItemID, claim.ClaimedByUserID, claim.Status).
		Scan(&claim.ID, &claim.CreatedAt, &claim.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}

	full, err := s.GetClaim(claim.ID)
	if err != nil {
		return err
	}
	*claim = *full
	return nil
}

func (s *PostgresStore) GetClaim(id string) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + claimJoins + ` WHERE cl.id = $1`
	claim, err := scanClaim(s.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

func (s *PostgresStore) queryClaims(query string, args ...interface{}) ([]models.Claim, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var out []models.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		out = append(out, *claim)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListActiveClaimsByItem(itemID string) ([]models.Claim, error) {
	query := `SELECT ` + claimColumns + claimJoins + `
		WHERE cl.item_id = $1 AND cl.status IN ('requested', 'approved')
		ORDER BY cl.created_at DESC`
	return s.queryClaims(query, itemID)
}

func (s *PostgresStore) GetActiveClaimByItemAndUser(itemID, userID string) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + claimJoins + `
		WHERE cl.item_id = $1 AND cl.claimed_by_user_id = $2
		  AND cl.status IN ('requested', 'approved')
		LIMIT 1`
	claim, err := scanClaim(s.db.QueryRow(query, itemID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active claim: %w", err)
	}
	return claim, nil
}

func (s *PostgresStore) ListIncomingClaims(ownerUserID string) ([]models.Claim, error) {
	query := `SELECT ` + claimColumns + claimJoins + `
		WHERE i.user_id = $1 AND cl.status IN ('requested', 'approved')
		ORDER BY cl.created_at DESC`
	return s.queryClaims(query, ownerUserID)
}

func (s *PostgresStore) ListClaimsByUser(userID string) ([]models.Claim, error) {
	query := `SELECT ` + claimColumns + claimJoins + `
		WHERE cl.claimed_by_user_id = $1
		ORDER BY cl.created_at DESC`
	return s.queryClaims(query, userID)
}

func (s *PostgresStore) UpdateClaimStatus(claimID string, status models.ClaimStatus) (*models.Claim, error) {
	res, err := s.db.Exec(
		`UPDATE claims SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to update claim status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetClaim(claimID)
}

// ApproveClaim runs the approval fan-out in a single transaction: claim to
// approved, item to claimed, every other requested claim on the item to
// rejected. Either all three apply or none do.
func (s *PostgresStore) ApproveClaim(claimID string) (*models.Claim, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var itemID string
	err = tx.QueryRow(
		`UPDATE claims SET status = 'approved', updated_at = NOW()
		 WHERE id = $1 RETURNING item_id`, claimID).Scan(&itemID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to approve claim: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE product_items SET is_claimed = TRUE, updated_at = NOW() WHERE id = $1`,
		itemID); err != nil {
		return nil, fmt.Errorf("failed to mark item claimed: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE claims SET status = 'rejected', updated_at = NOW()
		 WHERE item_id = $1 AND id <> $2 AND status = 'requested'`,
		itemID, claimID); err != nil {
		return nil, fmt.Errorf("failed to reject competing claims: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	return s.GetClaim(claimID)
}

// ==== groups ====

func (s *PostgresStore) CreateGroup(g *models.FriendGroup) error {
	query := `
		INSERT INTO friend_groups (owner_user_id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`
	if err := s.db.QueryRow(query, g.OwnerUserID, g.Name).Scan(&g.ID, &g.CreatedAt); err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	g.Members = []models.GroupMember{}
	return nil
}

func (s *PostgresStore) GetGroup(id string) (*models.FriendGroup, error) {
	query := `SELECT id, owner_user_id, name, created_at FROM friend_groups WHERE id = $1`
	var g models.FriendGroup
	err := s.db.QueryRow(query, id).Scan(&g.ID, &g.OwnerUserID, &g.Name, &g.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	members, err := s.ListGroupMembers(g.ID)
	if err != nil {
		return nil, err
	}
	g.Members = members
	g.MemberCount = len(members)
	return &g, nil
}

func (s *PostgresStore) ListGroupsByOwner(ownerUserID string) ([]models.FriendGroup, error) {
	query := `
		SELECT id, owner_user_id, name, created_at
		FROM friend_groups
		WHERE owner_user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.Query(query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var out []models.FriendGroup
	for rows.Next() {
		var g models.FriendGroup
		if err := rows.Scan(&g.ID, &g.OwnerUserID, &g.Name, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		members, err := s.ListGroupMembers(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Members = members
		out[i].MemberCount = len(members)
	}
	return out, nil
}

func (s *PostgresStore) IsGroupVisibleTo(groupID, userID string) (bool, error) {
	query := `
		SELECT owner_user_id = $2 OR EXISTS (
			SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2
		)
		FROM friend_groups WHERE id = $1
	`
	var visible bool
	err := s.db.QueryRow(query, groupID, userID).Scan(&visible)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to check group visibility: %w", err)
	}
	return visible, nil
}

const memberColumns = `
	m.id, m.group_id, m.user_id, m.preference_tags, m.created_at, u.id, u.email
`

func scanMember(scanner interface{ Scan(...interface{}) error }) (*models.GroupMember, error) {
	var m models.GroupMember
	var u models.UserSummary
	if err := scanner.Scan(&m.ID, &m.GroupID, &m.UserID, pq.Array(&m.PreferenceTags), &m.CreatedAt, &u.ID, &u.Email); err != nil {
		return nil, err
	}
	if m.PreferenceTags == nil {
		m.PreferenceTags = []string{}
	}
	m.User = &u
	return &m, nil
}

func (s *PostgresStore) ListGroupMembers(groupID string) ([]models.GroupMember, error) {
	query := `SELECT ` + memberColumns + `
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.created_at ASC`
	rows, err := s.db.Query(query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var out []models.GroupMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetGroupMember(memberID string) (*models.GroupMember, error) {
	query := `SELECT ` + memberColumns + `
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.id = $1`
	m, err := scanMember(s.db.QueryRow(query, memberID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get group member: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetMemberByGroupAndEmail(groupID, email string) (*models.GroupMember, error) {
	query := `SELECT ` + memberColumns + `
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1 AND u.email = $2`
	m, err := scanMember(s.db.QueryRow(query, groupID, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetMemberByGroupAndUser(groupID, userID string) (*models.GroupMember, error) {
	query := `SELECT ` + memberColumns + `
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1 AND m.user_id = $2`
	m, err := scanMember(s.db.QueryRow(query, groupID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) UpdateMemberPreferences(memberID string, tags []string) (*models.GroupMember, error) {
	if tags == nil {
		tags = []string{}
	}
	res, err := s.db.Exec(
		`UPDATE group_members SET preference_tags = $1 WHERE id = $2`,
		pq.Array(tags), memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetGroupMember(memberID)
}

// ==== invitations ====

func (s *PostgresStore) CreateInvitation(inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (group_id, email, token, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`
	err := s.db.QueryRow(query, inv.GroupID, inv.Email, inv.Token, inv.Status, inv.ExpiresAt).
		Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInvitationByToken(token string) (*models.Invitation, error) {
	query := `
		SELECT id, group_id, email, token, status, expires_at, redeemed_by_user_id, created_at
		FROM invitations
		WHERE token = $1
	`
	var inv models.Invitation
	err := s.db.QueryRow(query, token).Scan(
		&inv.ID, &inv.GroupID, &inv.Email, &inv.Token, &inv.Status,
		&inv.ExpiresAt, &inv.RedeemedByUserID, &inv.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

func (s *PostgresStore) UpdateInvitationStatus(invitationID string, status models.InvitationStatus) error {
	res, err := s.db.Exec(
		`UPDATE invitations SET status = $1 WHERE id = $2`,
		status, invitationID)
	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AcceptInvitation inserts the membership and marks the invitation
// accepted in one transaction. The unique (group_id, user_id) constraint
// turns a racing duplicate join into ErrDuplicate with no partial state.
func (s *PostgresStore) AcceptInvitation(invitationID, userID string) (*models.GroupMember, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var inv models.Invitation
	err = tx.QueryRow(
		`SELECT id, group_id FROM invitations WHERE id = $1`, invitationID).
		Scan(&inv.ID, &inv.GroupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}

	var memberID string
	err = tx.QueryRow(
		`INSERT INTO group_members (group_id, user_id, preference_tags, created_at)
		 VALUES ($1, $2, '{}', NOW())
		 RETURNING id`, inv.GroupID, userID).Scan(&memberID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE invitations SET status = 'accepted', redeemed_by_user_id = $1 WHERE id = $2`,
		userID, invitationID); err != nil {
		return nil, fmt.Errorf("failed to mark invitation accepted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit redemption: %w", err)
	}

	return s.GetGroupMember(memberID)
}

// ==== health ====

func (s *PostgresStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
