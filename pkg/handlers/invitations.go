package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/middleware"
	"anti-food-waste-backend/pkg/models"
	"anti-food-waste-backend/pkg/utils"
)

// InvitationsHandler owns token redemption. The clock is injected so the
// expiry gate is deterministic under test.
type InvitationsHandler struct {
	config *config.Config
	store  database.StoreInterface
	now    func() time.Time
}

// NewInvitationsHandler creates an invitations handler
func NewInvitationsHandler(cfg *config.Config, store database.StoreInterface) *InvitationsHandler {
	return &InvitationsHandler{config: cfg, store: store, now: time.Now}
}

// AcceptInvitation handles POST /api/invitations/accept.
//
// Validation gates run in a fixed order: token lookup, pending status,
// deadline, email match, existing membership. Expiry is detected lazily
// here; the expired status is persisted so a retry short-circuits on the
// pending check instead of re-evaluating the deadline.
func (h *InvitationsHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	var req models.AcceptInvitationRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if req.Token == "" {
		utils.WriteBadRequestResponse(w, "Token required")
		return
	}

	inv, err := h.store.GetInvitationByToken(req.Token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Invalid invitation token")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	if inv.Status != models.InvitationPending {
		utils.WriteInvalidOperationResponse(w, "Invitation already used or expired")
		return
	}

	if h.now().After(inv.ExpiresAt) {
		// Best-effort: the caller gets the expiry error even if this
		// write fails.
		if err := h.store.UpdateInvitationStatus(inv.ID, models.InvitationExpired); err != nil {
			fmt.Printf("[warn] failed to mark invitation %s expired: %v\n", inv.ID, err)
		}
		utils.WriteInvalidOperationResponse(w, "Invitation has expired")
		return
	}

	// The token alone is not proof of identity; the authenticated email
	// must match the invited address.
	if inv.Email != user.Email {
		utils.WriteForbiddenResponse(w, "Invitation email does not match your account")
		return
	}

	if _, err := h.store.GetMemberByGroupAndUser(inv.GroupID, user.ID); err == nil {
		// Intent was satisfied, so the invitation is consumed even though
		// no new membership is created.
		if err := h.store.UpdateInvitationStatus(inv.ID, models.InvitationAccepted); err != nil {
			fmt.Printf("[warn] failed to mark invitation %s accepted: %v\n", inv.ID, err)
		}
		utils.WriteConflictResponse(w, "Already a member of this group")
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	// Membership insert and invitation accept commit as one unit
	member, err := h.store.AcceptInvitation(inv.ID, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.WriteConflictResponse(w, "Already a member of this group")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to accept invitation: "+err.Error())
		return
	}

	group, err := h.store.GetGroup(inv.GroupID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, models.AcceptInvitationResponse{
		Message:    "Invitation accepted successfully",
		Group:      group.Summary(),
		Membership: member,
	})
}
