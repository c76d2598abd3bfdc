package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClaim_HappyPath(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	claimer := seedUser(t, store, "claimer@example.com")
	cat := seedCategory(t, store, owner.ID, "dairy")
	item := seedItem(t, store, owner.ID, cat.ID, "milk", true)

	rec := httptest.NewRecorder()
	req := authedRequest(t, claimer, http.MethodPost, "/api/claims/items/"+item.ID+"/claims", nil,
		map[string]string{"itemID": item.ID})
	h.CreateClaim(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var data struct {
		Claim models.Claim `json:"claim"`
	}
	decodeEnvelope(t, rec, &data)
	assert.Equal(t, models.ClaimRequested, data.Claim.Status)
	assert.Equal(t, claimer.ID, data.Claim.ClaimedByUserID)
	assert.Equal(t, item.ID, data.Claim.ItemID)
}

func TestCreateClaim_ItemNotFound(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)
	user := seedUser(t, store, "u@example.com")

	rec := httptest.NewRecorder()
	req := authedRequest(t, user, http.MethodPost, "/api/claims/items/nope/claims", nil,
		map[string]string{"itemID": "nope"})
	h.CreateClaim(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestCreateClaim_OwnItemRejected(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	cat := seedCategory(t, store, owner.ID, "dairy")
	item := seedItem(t, store, owner.ID, cat.ID, "milk", true)

	rec := httptest.NewRecorder()
	req := authedRequest(t, owner, http.MethodPost, "/api/claims/items/"+item.ID+"/claims", nil,
		map[string]string{"itemID": item.ID})
	h.CreateClaim(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "INVALID_OPERATION", apiErr.Code)
}

func TestCreateClaim_NotShareable(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	claimer := seedUser(t, store, "claimer@example.com")
	cat := seedCategory(t, store, owner.ID, "dairy")
	item := seedItem(t, store, owner.ID, cat.ID, "milk", false)

	rec := httptest.NewRecorder()
	req := authedRequest(t, claimer, http.MethodPost, "/api/claims/items/"+item.ID+"/claims", nil,
		map[string]string{"itemID": item.ID})
	h.CreateClaim(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "INVALID_OPERATION", apiErr.Code)
}

func TestCreateClaim_PendingClaimBlocksOthers(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	first := seedUser(t, store, "first@example.com")
	second := seedUser(t, store, "second@example.com")
	cat := seedCategory(t, store, owner.ID, "dairy")
	item := seedItem(t, store, owner.ID, cat.ID, "milk", true)

	rec := httptest.NewRecorder()
	h.CreateClaim(rec, authedRequest(t, first, http.MethodPost, "/x", nil,
		map[string]string{"itemID": item.ID}))
	require.Equal(t, http.StatusCreated, rec.Code)

	// A second user hitting the same item gets a conflict while the first
	// claim is still in flight
	rec = httptest.NewRecorder()
	h.CreateClaim(rec, authedRequest(t, second, http.MethodPost, "/x", nil,
		map[string]string{"itemID": item.ID}))
	require.Equal(t, http.StatusConflict, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "CONFLICT", apiErr.Code)
}

func TestCreateClaim_DuplicateBySameUser(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	claimer := seedUser(t, store, "claimer@example.com")
	cat := seedCategory(t, store, owner.ID, "dairy")
	item := seedItem(t, store, owner.ID, cat.ID, "milk", true)

	rec := httptest.NewRecorder()
	h.CreateClaim(rec, authedRequest(t, claimer, http.MethodPost, "/x", nil,
		map[string]string{"itemID": item.ID}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateClaim(rec, authedRequest(t, claimer, http.MethodPost, "/x", nil,
		map[string]string{"itemID": item.ID}))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func approveSetup(t *testing.T, store database.StoreInterface) (owner, winner, loser *models.User, item *models.ProductItem, winning, losing *models.Claim) {
	t.Helper()

	owner = seedUser(t, store, "owner@example.com")
	winner = seedUser(t, store, "winner@example.com")
	loser = seedUser(t, store, "loser@example.com")
	cat := seedCategory(t, store, owner.ID, "dairy")
	item = seedItem(t, store, owner.ID, cat.ID, "milk", true)

	// Two requested claims seeded directly at the store layer; the handler
	// gate would refuse the second one.
	winning = &models.Claim{ItemID: item.ID, ClaimedByUserID: winner.ID, Status: models.ClaimRequested}
	require.NoError(t, store.CreateClaim(winning))
	losing = &models.Claim{ItemID: item.ID, ClaimedByUserID: loser.ID, Status: models.ClaimRequested}
	require.NoError(t, store.CreateClaim(losing))
	return
}

func TestUpdateClaim_ApproveResolvesAllClaims(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	owner, winner, _, item, winning, losing := approveSetup(t, store)

	rec := httptest.NewRecorder()
	req := authedRequest(t, owner, http.MethodPatch, "/api/claims/"+winning.ID,
		models.ClaimUpdateRequest{Status: models.ClaimApproved},
		map[string]string{"id": winning.ID})
	h.UpdateClaim(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Claim models.Claim `json:"claim"`
	}
	decodeEnvelope(t, rec, &data)
	assert.Equal(t, models.ClaimApproved, data.Claim.Status)
	assert.Equal(t, winner.ID, data.Claim.ClaimedByUserID)

	// The item is now claimed
	updatedItem, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.True(t, updatedItem.IsClaimed)

	// The competing claim was mass-rejected in the same operation
	other, err := store.GetClaim(losing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimRejected, other.Status)
}

func TestUpdateClaim_ApproveRequiresOwner(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	_, winner, _, _, winning, _ := approveSetup(t, store)

	// The claimant cannot approve their own claim
	rec := httptest.NewRecorder()
	req := authedRequest(t, winner, http.MethodPatch, "/x",
		models.ClaimUpdateRequest{Status: models.ClaimApproved},
		map[string]string{"id": winning.ID})
	h.UpdateClaim(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "FORBIDDEN", apiErr.Code)
}

func TestUpdateClaim_CancelBelongsToClaimant(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	owner, winner, _, _, winning, _ := approveSetup(t, store)

	// The owner cannot cancel someone else's claim
	rec := httptest.NewRecorder()
	h.UpdateClaim(rec, authedRequest(t, owner, http.MethodPatch, "/x",
		models.ClaimUpdateRequest{Status: models.ClaimCancelled},
		map[string]string{"id": winning.ID}))
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The claimant can
	rec = httptest.NewRecorder()
	h.UpdateClaim(rec, authedRequest(t, winner, http.MethodPatch, "/x",
		models.ClaimUpdateRequest{Status: models.ClaimCancelled},
		map[string]string{"id": winning.ID}))
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Claim models.Claim `json:"claim"`
	}
	decodeEnvelope(t, rec, &data)
	assert.Equal(t, models.ClaimCancelled, data.Claim.Status)
}

func TestUpdateClaim_TerminalStateIsFinal(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	owner, _, _, _, winning, losing := approveSetup(t, store)

	rec := httptest.NewRecorder()
	h.UpdateClaim(rec, authedRequest(t, owner, http.MethodPatch, "/x",
		models.ClaimUpdateRequest{Status: models.ClaimApproved},
		map[string]string{"id": winning.ID}))
	require.Equal(t, http.StatusOK, rec.Code)

	// Approving the mass-rejected claim afterwards must fail: rejected is
	// terminal
	rec = httptest.NewRecorder()
	h.UpdateClaim(rec, authedRequest(t, owner, http.MethodPatch, "/x",
		models.ClaimUpdateRequest{Status: models.ClaimApproved},
		map[string]string{"id": losing.ID}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "INVALID_OPERATION", apiErr.Code)

	// Re-approving the approved claim is equally final
	rec = httptest.NewRecorder()
	h.UpdateClaim(rec, authedRequest(t, owner, http.MethodPatch, "/x",
		models.ClaimUpdateRequest{Status: models.ClaimApproved},
		map[string]string{"id": winning.ID}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateClaim_InvalidStatus(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	owner, _, _, _, winning, _ := approveSetup(t, store)

	rec := httptest.NewRecorder()
	h.UpdateClaim(rec, authedRequest(t, owner, http.MethodPatch, "/x",
		models.ClaimUpdateRequest{Status: "requested"},
		map[string]string{"id": winning.ID}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListIncomingAndMine(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewClaimsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	claimer := seedUser(t, store, "claimer@example.com")
	cat := seedCategory(t, store, owner.ID, "dairy")
	item := seedItem(t, store, owner.ID, cat.ID, "milk", true)

	claim := &models.Claim{ItemID: item.ID, ClaimedByUserID: claimer.ID, Status: models.ClaimRequested}
	require.NoError(t, store.CreateClaim(claim))

	var data struct {
		Claims []models.Claim `json:"claims"`
	}

	rec := httptest.NewRecorder()
	h.ListIncoming(rec, authedRequest(t, owner, http.MethodGet, "/api/claims/incoming", nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &data)
	require.Len(t, data.Claims, 1)
	assert.Equal(t, claim.ID, data.Claims[0].ID)

	rec = httptest.NewRecorder()
	h.ListMine(rec, authedRequest(t, claimer, http.MethodGet, "/api/claims/mine", nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data.Claims = nil
	decodeEnvelope(t, rec, &data)
	require.Len(t, data.Claims, 1)
	assert.Equal(t, claim.ID, data.Claims[0].ID)

	// The claimer has no incoming claims on their own items
	rec = httptest.NewRecorder()
	h.ListIncoming(rec, authedRequest(t, claimer, http.MethodGet, "/api/claims/incoming", nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data.Claims = nil
	decodeEnvelope(t, rec, &data)
	assert.Empty(t, data.Claims)
}
