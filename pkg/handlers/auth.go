package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/middleware"
	"anti-food-waste-backend/pkg/models"
	"anti-food-waste-backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles registration, login, and token refresh
type AuthHandler struct {
	config *config.Config
	store  database.StoreInterface
	jwt    *utils.JWTService
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(cfg *config.Config, store database.StoreInterface) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		store:  store,
		jwt:    utils.NewJWTService(cfg.JWTSecret),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.UserRegisterRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		utils.WriteBadRequestResponse(w, "Valid email required")
		return
	}
	if len(req.Password) < 8 {
		utils.WriteBadRequestResponse(w, "Password must be at least 8 characters")
		return
	}

	if _, err := h.store.GetUserByEmail(email); err == nil {
		utils.WriteConflictResponse(w, "Email already registered")
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to hash password")
		return
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
	}
	if err := h.store.CreateUser(user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.WriteConflictResponse(w, "Email already registered")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Failed to create user: "+err.Error())
		return
	}

	accessToken, refreshToken, expiresIn, err := h.jwt.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to generate tokens")
		return
	}

	utils.WriteCreatedResponse(w, models.UserLoginResponse{
		User:         *user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.UserLoginRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Same error as a wrong password; do not leak which one failed
			utils.WriteUnauthorizedResponse(w, "Invalid email or password")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.WriteUnauthorizedResponse(w, "Invalid email or password")
		return
	}

	accessToken, refreshToken, expiresIn, err := h.jwt.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		fmt.Printf("[error] token generation failed for user=%s: %v\n", user.ID, err)
		utils.WriteInternalServerErrorResponse(w, "Failed to generate tokens")
		return
	}

	utils.WriteSuccessResponse(w, models.UserLoginResponse{
		User:         *user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshTokenRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		utils.WriteBadRequestResponse(w, "Refresh token required")
		return
	}

	accessToken, expiresIn, err := h.jwt.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Invalid refresh token")
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"access_token": accessToken,
		"expires_in":   expiresIn,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	// Re-read so the response reflects current state, not token claims
	fresh, err := h.store.GetUserByID(user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteUnauthorizedResponse(w, "User no longer exists")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"user": fresh})
}
