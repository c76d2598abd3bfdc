package handlers

import (
	"errors"
	"net/http"
	"strings"

	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/middleware"
	"anti-food-waste-backend/pkg/models"
	"anti-food-waste-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// CategoriesHandler manages a user's item categories
type CategoriesHandler struct {
	config *config.Config
	store  database.StoreInterface
}

// NewCategoriesHandler creates a categories handler
func NewCategoriesHandler(cfg *config.Config, store database.StoreInterface) *CategoriesHandler {
	return &CategoriesHandler{config: cfg, store: store}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	categories, err := h.store.ListCategoriesByUser(user.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"categories": categories})
}

// CreateCategory handles POST /api/categories
func (h *CategoriesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	var req models.CategoryCreateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.WriteBadRequestResponse(w, "Category name required")
		return
	}

	category := &models.Category{
		UserID: user.ID,
		Name:   req.Name,
	}
	if err := h.store.CreateCategory(category); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create category: "+err.Error())
		return
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{"category": category})
}

func (h *CategoriesHandler) loadOwnCategory(w http.ResponseWriter, r *http.Request, userID string) *models.Category {
	id := chi.URLParam(r, "id")
	category, err := h.store.GetCategory(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Category not found")
			return nil
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return nil
	}
	if category.UserID != userID {
		utils.WriteNotFoundResponse(w, "Category not found")
		return nil
	}
	return category
}

// UpdateCategory handles PATCH /api/categories/{id}
func (h *CategoriesHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	category := h.loadOwnCategory(w, r, user.ID)
	if category == nil {
		return
	}

	var req models.CategoryCreateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.WriteBadRequestResponse(w, "Category name required")
		return
	}

	category.Name = req.Name
	if err := h.store.UpdateCategory(category); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to update category: "+err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"category": category})
}

// DeleteCategory handles DELETE /api/categories/{id}
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	category := h.loadOwnCategory(w, r, user.ID)
	if category == nil {
		return
	}

	if err := h.store.DeleteCategory(category.ID); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to delete category: "+err.Error())
		return
	}

	utils.WriteNoContentResponse(w)
}
