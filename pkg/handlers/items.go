package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/middleware"
	"anti-food-waste-backend/pkg/models"
	"anti-food-waste-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// ItemsHandler manages a user's own tracked items
type ItemsHandler struct {
	config *config.Config
	store  database.StoreInterface
	now    func() time.Time
}

// NewItemsHandler creates an items handler
func NewItemsHandler(cfg *config.Config, store database.StoreInterface) *ItemsHandler {
	return &ItemsHandler{config: cfg, store: store, now: time.Now}
}

func parseExpiryDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// ListItems handles GET /api/items?category_id=
func (h *ItemsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	items, err := h.store.ListItemsByUser(user.ID, r.URL.Query().Get("category_id"))
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"items": items})
}

// ListExpiring handles GET /api/items/expiring?days=. Returns items
// expiring within the window and items already expired, separately.
func (h *ItemsHandler) ListExpiring(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	days := 3
	if v := r.URL.Query().Get("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}

	today := h.now()
	future := today.AddDate(0, 0, days)

	expiring, err := h.store.ListItemsExpiringBetween(user.ID, today, future)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	expired, err := h.store.ListItemsExpiredBefore(user.ID, today)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"expiring": expiring,
		"expired":  expired,
	})
}

// CreateItem handles POST /api/items
func (h *ItemsHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	var req models.ItemCreateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" || req.CategoryID == "" || req.Quantity <= 0 || req.ExpiryDate == "" {
		utils.WriteBadRequestResponse(w, "Missing required fields")
		return
	}

	expiryDate, err := parseExpiryDate(req.ExpiryDate)
	if err != nil {
		utils.WriteBadRequestResponse(w, "Invalid expiry date")
		return
	}

	// The category must belong to the creating user
	category, err := h.store.GetCategory(req.CategoryID)
	if err != nil || category.UserID != user.ID {
		utils.WriteNotFoundResponse(w, "Category not found")
		return
	}

	item := &models.ProductItem{
		UserID:      user.ID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Quantity:    req.Quantity,
		ExpiryDate:  expiryDate,
		IsShareable: req.IsShareable,
	}
	if err := h.store.CreateItem(item); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create item: "+err.Error())
		return
	}

	created, err := h.store.GetItem(item.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{"item": created})
}

// loadOwnItem fetches an item and enforces ownership; missing and
// not-owned are indistinguishable to the caller.
func (h *ItemsHandler) loadOwnItem(w http.ResponseWriter, r *http.Request, userID string) *models.ProductItem {
	id := chi.URLParam(r, "id")
	item, err := h.store.GetItem(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Item not found")
			return nil
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return nil
	}
	if item.UserID != userID {
		utils.WriteNotFoundResponse(w, "Item not found")
		return nil
	}
	return item
}

// UpdateItem handles PATCH /api/items/{id}: partial update of item fields
func (h *ItemsHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	item := h.loadOwnItem(w, r, user.ID)
	if item == nil {
		return
	}

	var req models.ItemUpdateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.CategoryID != nil {
		item.CategoryID = *req.CategoryID
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.ExpiryDate != nil {
		expiryDate, err := parseExpiryDate(*req.ExpiryDate)
		if err != nil {
			utils.WriteBadRequestResponse(w, "Invalid expiry date")
			return
		}
		item.ExpiryDate = expiryDate
	}
	if req.IsShareable != nil {
		item.IsShareable = *req.IsShareable
	}

	if err := h.store.UpdateItem(item); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to update item: "+err.Error())
		return
	}

	updated, err := h.store.GetItem(item.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"item": updated})
}

// ToggleShareable handles PATCH /api/items/{id}/shareable
func (h *ItemsHandler) ToggleShareable(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	item := h.loadOwnItem(w, r, user.ID)
	if item == nil {
		return
	}

	item.IsShareable = !item.IsShareable
	if err := h.store.UpdateItem(item); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to toggle shareable: "+err.Error())
		return
	}

	updated, err := h.store.GetItem(item.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"item": updated})
}

// DeleteItem handles DELETE /api/items/{id}
func (h *ItemsHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	item := h.loadOwnItem(w, r, user.ID)
	if item == nil {
		return
	}

	if err := h.store.DeleteItem(item.ID); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to delete item: "+err.Error())
		return
	}

	utils.WriteNoContentResponse(w)
}
