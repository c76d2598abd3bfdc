package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/middleware"
	"anti-food-waste-backend/pkg/models"
	"anti-food-waste-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// GroupsHandler manages friend groups, their members, and invitation
// minting.
type GroupsHandler struct {
	config *config.Config
	store  database.StoreInterface
	now    func() time.Time
}

// NewGroupsHandler creates a groups handler
func NewGroupsHandler(cfg *config.Config, store database.StoreInterface) *GroupsHandler {
	return &GroupsHandler{config: cfg, store: store, now: time.Now}
}

// CreateGroup handles POST /api/groups
func (h *GroupsHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	var req models.GroupCreateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.WriteBadRequestResponse(w, "Group name required")
		return
	}

	group := &models.FriendGroup{
		Name:        req.Name,
		OwnerUserID: user.ID,
	}
	if err := h.store.CreateGroup(group); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create group: "+err.Error())
		return
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{"group": group})
}

// ListGroups handles GET /api/groups: the authenticated user's own groups
func (h *GroupsHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	groups, err := h.store.ListGroupsByOwner(user.ID)
	if err != nil {
		fmt.Printf("[error] ListGroups failed for user=%s: %v\n", user.ID, err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"groups": groups})
}

// InviteMember handles POST /api/groups/{id}/invite: mints a pending
// invitation with an opaque token, valid for seven days.
func (h *GroupsHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	groupID := chi.URLParam(r, "id")

	var req models.InviteRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		utils.WriteBadRequestResponse(w, "Email required")
		return
	}

	// Ownership is part of the lookup: a non-owner gets the same 404 as a
	// missing group.
	group, err := h.store.GetGroup(groupID)
	if err != nil || group.OwnerUserID != user.ID {
		utils.WriteNotFoundResponse(w, "Group not found")
		return
	}

	if _, err := h.store.GetMemberByGroupAndEmail(groupID, req.Email); err == nil {
		utils.WriteConflictResponse(w, "User is already a member")
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	token, err := utils.GenerateInviteToken(32)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to generate token")
		return
	}

	inv := &models.Invitation{
		GroupID:   groupID,
		Email:     req.Email,
		Token:     token,
		Status:    models.InvitationPending,
		ExpiresAt: h.now().Add(models.InvitationTTL),
	}
	if err := h.store.CreateInvitation(inv); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create invitation: "+err.Error())
		return
	}

	utils.WriteCreatedResponse(w, models.InviteResponse{
		Invitation: inv,
		InviteLink: fmt.Sprintf("%s/invitations/accept?token=%s", h.config.BaseURL, token),
	})
}

// ListMembers handles GET /api/groups/{id}/members. Visible to the owner
// and to members of the group.
func (h *GroupsHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	groupID := chi.URLParam(r, "id")

	visible, err := h.store.IsGroupVisibleTo(groupID, user.ID)
	if err != nil || !visible {
		utils.WriteNotFoundResponse(w, "Group not found")
		return
	}

	members, err := h.store.ListGroupMembers(groupID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"members": members})
}

// UpdateMemberPreferences handles
// PATCH /api/groups/{id}/members/{memberID}/preferences. The member
// themselves or the group owner may update the tags.
func (h *GroupsHandler) UpdateMemberPreferences(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	groupID := chi.URLParam(r, "id")
	memberID := chi.URLParam(r, "memberID")

	group, err := h.store.GetGroup(groupID)
	if err != nil || group.OwnerUserID != user.ID {
		utils.WriteNotFoundResponse(w, "Group not found")
		return
	}

	member, err := h.store.GetGroupMember(memberID)
	if err != nil || member.GroupID != groupID {
		utils.WriteNotFoundResponse(w, "Member not found")
		return
	}

	if member.UserID != user.ID && group.OwnerUserID != user.ID {
		utils.WriteForbiddenResponse(w, "Not authorized")
		return
	}

	var req models.MemberPreferencesRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	updated, err := h.store.UpdateMemberPreferences(memberID, req.PreferenceTags)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to update preferences: "+err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"member": updated})
}
