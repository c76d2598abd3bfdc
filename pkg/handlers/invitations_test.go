package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInvitation(t *testing.T, store database.StoreInterface, groupID, email, token string, expiresAt time.Time) *models.Invitation {
	t.Helper()
	inv := &models.Invitation{
		GroupID:   groupID,
		Email:     email,
		Token:     token,
		Status:    models.InvitationPending,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, store.CreateInvitation(inv))
	return inv
}

func TestAcceptInvitation_HappyPath(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewInvitationsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	invitee := seedUser(t, store, "invitee@example.com")
	group := seedGroup(t, store, owner.ID, "neighbors")
	inv := seedInvitation(t, store, group.ID, invitee.Email, "tok-happy", time.Now().Add(time.Hour))

	rec := httptest.NewRecorder()
	h.AcceptInvitation(rec, authedRequest(t, invitee, http.MethodPost, "/api/invitations/accept",
		models.AcceptInvitationRequest{Token: inv.Token}, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var data models.AcceptInvitationResponse
	decodeEnvelope(t, rec, &data)
	require.NotNil(t, data.Membership)
	assert.Equal(t, group.ID, data.Membership.GroupID)
	assert.Equal(t, invitee.ID, data.Membership.UserID)
	require.NotNil(t, data.Group)
	assert.Equal(t, group.ID, data.Group.ID)

	// The invitation is consumed and records who redeemed it
	stored, err := store.GetInvitationByToken(inv.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, stored.Status)
	require.NotNil(t, stored.RedeemedByUserID)
	assert.Equal(t, invitee.ID, *stored.RedeemedByUserID)
}

func TestAcceptInvitation_UnknownToken(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewInvitationsHandler(testConfig(), store)
	user := seedUser(t, store, "u@example.com")

	rec := httptest.NewRecorder()
	h.AcceptInvitation(rec, authedRequest(t, user, http.MethodPost, "/x",
		models.AcceptInvitationRequest{Token: "no-such-token"}, nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestAcceptInvitation_MissingToken(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewInvitationsHandler(testConfig(), store)
	user := seedUser(t, store, "u@example.com")

	rec := httptest.NewRecorder()
	h.AcceptInvitation(rec, authedRequest(t, user, http.MethodPost, "/x",
		models.AcceptInvitationRequest{}, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcceptInvitation_ExpiryPersistedLazily(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewInvitationsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	invitee := seedUser(t, store, "invitee@example.com")
	group := seedGroup(t, store, owner.ID, "neighbors")
	inv := seedInvitation(t, store, group.ID, invitee.Email, "tok-expired", time.Now().Add(time.Hour))

	// Redeem after the deadline
	h.now = func() time.Time { return inv.ExpiresAt.Add(time.Minute) }

	rec := httptest.NewRecorder()
	h.AcceptInvitation(rec, authedRequest(t, invitee, http.MethodPost, "/x",
		models.AcceptInvitationRequest{Token: inv.Token}, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "INVALID_OPERATION", apiErr.Code)
	assert.Equal(t, "Invitation has expired", apiErr.Message)

	// The failed attempt persisted the expired status
	stored, err := store.GetInvitationByToken(inv.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationExpired, stored.Status)

	// A retry short-circuits on the status gate, before the deadline check
	rec = httptest.NewRecorder()
	h.AcceptInvitation(rec, authedRequest(t, invitee, http.MethodPost, "/x",
		models.AcceptInvitationRequest{Token: inv.Token}, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr = decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "Invitation already used or expired", apiErr.Message)
}

func TestAcceptInvitation_EmailMismatchLeavesInvitationPending(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewInvitationsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	invitee := seedUser(t, store, "invitee@example.com")
	interloper := seedUser(t, store, "interloper@example.com")
	group := seedGroup(t, store, owner.ID, "neighbors")
	inv := seedInvitation(t, store, group.ID, invitee.Email, "tok-mismatch", time.Now().Add(time.Hour))

	rec := httptest.NewRecorder()
	h.AcceptInvitation(rec, authedRequest(t, interloper, http.MethodPost, "/x",
		models.AcceptInvitationRequest{Token: inv.Token}, nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "FORBIDDEN", apiErr.Code)

	// The wrong account does not burn the invitation; the real invitee can
	// still redeem it
	stored, err := store.GetInvitationByToken(inv.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, stored.Status)

	rec = httptest.NewRecorder()
	h.AcceptInvitation(rec, authedRequest(t, invitee, http.MethodPost, "/x",
		models.AcceptInvitationRequest{Token: inv.Token}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAcceptInvitation_DoubleRedemption(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewInvitationsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	invitee := seedUser(t, store, "invitee@example.com")
	group := seedGroup(t, store, owner.ID, "neighbors")
	inv := seedInvitation(t, store, group.ID, invitee.Email, "tok-double", time.Now().Add(time.Hour))

	rec := httptest.NewRecorder()
	h.AcceptInvitation(rec, authedRequest(t, invitee, http.MethodPost, "/x",
		models.AcceptInvitationRequest{Token: inv.Token}, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Second redemption fails on the status gate; membership count stays 1
	rec = httptest.NewRecorder()
	h.AcceptInvitation(rec, authedRequest(t, invitee, http.MethodPost, "/x",
		models.AcceptInvitationRequest{Token: inv.Token}, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	members, err := store.ListGroupMembers(group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestAcceptInvitation_AlreadyMemberConsumesInvitation(t *testing.T) {
	store := database.NewMemoryStore()
	h := NewInvitationsHandler(testConfig(), store)

	owner := seedUser(t, store, "owner@example.com")
	invitee := seedUser(t, store, "invitee@example.com")
	group := seedGroup(t, store, owner.ID, "neighbors")

	// Already a member through an earlier invitation
	first := seedInvitation(t, store, group.ID, invitee.Email, "tok-first", time.Now().Add(time.Hour))
	_, err := store.AcceptInvitation(first.ID, invitee.ID)
	require.NoError(t, err)

	second := seedInvitation(t, store, group.ID, invitee.Email, "tok-second", time.Now().Add(time.Hour))

	rec := httptest.NewRecorder()
	h.AcceptInvitation(rec, authedRequest(t, invitee, http.MethodPost, "/x",
		models.AcceptInvitationRequest{Token: second.Token}, nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, "CONFLICT", apiErr.Code)

	// The duplicate invitation is consumed, not left redeemable
	stored, err := store.GetInvitationByToken(second.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, stored.Status)

	members, err := store.ListGroupMembers(group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
