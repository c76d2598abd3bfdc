package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/middleware"
	"anti-food-waste-backend/pkg/models"
	"anti-food-waste-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// Shared test fixtures: every handler test runs against the in-memory
// store with the authenticated user injected straight into the request
// context, bypassing the JWT middleware.

func testConfig() *config.Config {
	return &config.Config{
		Environment:    "test",
		Port:           "3001",
		UseMemoryStore: true,
		JWTSecret:      "test-secret-key-that-is-long-enough",
		BaseURL:        "http://localhost:3000",
	}
}

func seedUser(t *testing.T, store database.StoreInterface, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "irrelevant-hash"}
	require.NoError(t, store.CreateUser(user))
	return user
}

func seedCategory(t *testing.T, store database.StoreInterface, userID, name string) *models.Category {
	t.Helper()
	c := &models.Category{UserID: userID, Name: name}
	require.NoError(t, store.CreateCategory(c))
	return c
}

func seedItem(t *testing.T, store database.StoreInterface, userID, categoryID, name string, shareable bool) *models.ProductItem {
	t.Helper()
	item := &models.ProductItem{
		UserID:      userID,
		CategoryID:  categoryID,
		Name:        name,
		Quantity:    1,
		ExpiryDate:  time.Now().Add(48 * time.Hour),
		IsShareable: shareable,
	}
	require.NoError(t, store.CreateItem(item))
	return item
}

func seedGroup(t *testing.T, store database.StoreInterface, ownerID, name string) *models.FriendGroup {
	t.Helper()
	g := &models.FriendGroup{OwnerUserID: ownerID, Name: name}
	require.NoError(t, store.CreateGroup(g))
	return g
}

// authedRequest builds a request with the user planted in the context and
// optional chi URL params.
func authedRequest(t *testing.T, user *models.User, method, target string, body interface{}, params map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	ctx := req.Context()

	if user != nil {
		ctx = context.WithValue(ctx, middleware.UserContextKey, user)
	}

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	return req.WithContext(ctx)
}

// decodeEnvelope unmarshals the standard response envelope, decoding Data
// into out when out is non-nil.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) *utils.APIError {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *utils.APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	if out != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return envelope.Error
}
