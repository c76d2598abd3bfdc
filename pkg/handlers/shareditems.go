package handlers

import (
	"net/http"

	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/middleware"
	"anti-food-waste-backend/pkg/utils"
)

// SharedItemsHandler serves the public claimable-items feed
type SharedItemsHandler struct {
	config *config.Config
	store  database.StoreInterface
}

// NewSharedItemsHandler creates a shared items handler
func NewSharedItemsHandler(cfg *config.Config, store database.StoreInterface) *SharedItemsHandler {
	return &SharedItemsHandler{config: cfg, store: store}
}

// ListSharedItems handles GET /api/shared-items?q=&category=.
//
// The feed is a point-in-time read: an item shown as claimable may be
// claimed before the viewer acts. That race is tolerated because
// CreateClaim re-checks every invariant independently.
func (h *SharedItemsHandler) ListSharedItems(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	nameFilter := r.URL.Query().Get("q")
	categoryFilter := r.URL.Query().Get("category")

	items, err := h.store.ListSharedItems(user.ID, nameFilter, categoryFilter)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"items": items})
}
