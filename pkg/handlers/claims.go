package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/middleware"
	"anti-food-waste-backend/pkg/models"
	"anti-food-waste-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// ClaimsHandler owns the claim ledger: requesting claims on shared items
// and resolving them so that each item has at most one winner.
type ClaimsHandler struct {
	config *config.Config
	store  database.StoreInterface
}

// NewClaimsHandler creates a claims handler
func NewClaimsHandler(cfg *config.Config, store database.StoreInterface) *ClaimsHandler {
	return &ClaimsHandler{config: cfg, store: store}
}

// CreateClaim handles POST /api/claims/items/{itemID}/claims.
//
// Every gate is re-evaluated here at call time: a request racing a
// concurrent approval must fail on the live-claim check rather than rely
// on the feed it was read from.
func (h *ClaimsHandler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	itemID := chi.URLParam(r, "itemID")

	item, err := h.store.GetItem(itemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Item not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	if item.UserID == user.ID {
		utils.WriteInvalidOperationResponse(w, "Cannot claim your own item")
		return
	}

	if !item.IsShareable {
		utils.WriteInvalidOperationResponse(w, "Item is not shareable")
		return
	}

	// An item with any claim in flight is closed to new requests. This is
	// stricter than checking is_claimed alone: it covers the window
	// between claim creation and approval.
	activeClaims, err := h.store.ListActiveClaimsByItem(itemID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	if item.IsClaimed || len(activeClaims) > 0 {
		utils.WriteConflictResponse(w, "Item is already claimed or has pending claims")
		return
	}

	if _, err := h.store.GetActiveClaimByItemAndUser(itemID, user.ID); err == nil {
		utils.WriteConflictResponse(w, "You already have a pending or approved claim for this item")
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	claim := &models.Claim{
		ItemID:          itemID,
		ClaimedByUserID: user.ID,
		Status:          models.ClaimRequested,
	}
	if err := h.store.CreateClaim(claim); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create claim: "+err.Error())
		return
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{"claim": claim})
}

// ListIncoming handles GET /api/claims/incoming: active claims on the
// authenticated user's items.
func (h *ClaimsHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	claims, err := h.store.ListIncomingClaims(user.ID)
	if err != nil {
		fmt.Printf("[error] ListIncoming failed for user=%s: %v\n", user.ID, err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"claims": claims})
}

// ListMine handles GET /api/claims/mine: all claims the authenticated user
// has made, in any state.
func (h *ClaimsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	claims, err := h.store.ListClaimsByUser(user.ID)
	if err != nil {
		fmt.Printf("[error] ListMine failed for user=%s: %v\n", user.ID, err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"claims": claims})
}

// UpdateClaim handles PATCH /api/claims/{id}: transitions a requested
// claim to approved, rejected, or cancelled.
func (h *ClaimsHandler) UpdateClaim(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	claimID := chi.URLParam(r, "id")

	var req models.ClaimUpdateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	if req.Status != models.ClaimApproved && req.Status != models.ClaimRejected && req.Status != models.ClaimCancelled {
		utils.WriteBadRequestResponse(w, "Invalid status")
		return
	}

	claim, err := h.store.GetClaim(claimID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Claim not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	// Authorization: cancel belongs to the claimant, approve/reject to the
	// item owner. Everything else is forbidden.
	isOwner := claim.Item != nil && claim.Item.UserID == user.ID
	isClaimant := claim.ClaimedByUserID == user.ID
	switch req.Status {
	case models.ClaimCancelled:
		if !isClaimant {
			utils.WriteForbiddenResponse(w, "Only the claimer can cancel")
			return
		}
	case models.ClaimApproved:
		if !isOwner {
			utils.WriteForbiddenResponse(w, "Only the item owner can approve")
			return
		}
	case models.ClaimRejected:
		if !isOwner {
			utils.WriteForbiddenResponse(w, "Only the item owner can reject")
			return
		}
	}

	// Terminal states never transition again
	if claim.Status != models.ClaimRequested {
		utils.WriteInvalidOperationResponse(w,
			fmt.Sprintf("Cannot %s a claim that is %s", req.Status, claim.Status))
		return
	}

	var updated *models.Claim
	if req.Status == models.ClaimApproved {
		// Approval, marking the item claimed, and rejecting every other
		// requested claim commit as one unit inside the store.
		updated, err = h.store.ApproveClaim(claimID)
	} else {
		updated, err = h.store.UpdateClaimStatus(claimID, req.Status)
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to update claim: "+err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"claim": updated})
}
