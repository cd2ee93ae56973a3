package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/models"
	"campus-chat/internal/presence"
	"campus-chat/internal/repositories"
)

func TestMatchInbox(t *testing.T) {
	d := newTestDeps(t)
	h := NewInboxHandler(d.svc)
	router := testRouter("alice")
	router.GET("/messages/matches", h.Matches)
	matchID := uuid.New()

	d.matches.On("ListForUser", mock.Anything, "alice").Return([]models.Match{{ID: matchID, User1ID: "alice", User2ID: "bob"}}, nil).Once()
	d.privateMessages.On("Latest", mock.Anything, matchID).Return(nil, repositories.ErrMessageNotFound).Once()
	d.privateMessages.On("CountUnseen", mock.Anything, matchID, "alice").Return(0, nil).Once()

	rec := doJSON(router, http.MethodGet, "/messages/matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"partner_id":"bob"`)
}

func TestLoungeInboxError(t *testing.T) {
	d := newTestDeps(t)
	h := NewInboxHandler(d.svc)
	router := testRouter("alice")
	router.GET("/messages/lounges", h.Lounges)

	d.lounges.On("ListForUser", mock.Anything, "alice").Return(nil, errors.New("db down")).Once()

	rec := doJSON(router, http.MethodGet, "/messages/lounges", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPresenceOnline(t *testing.T) {
	tracker := presence.NewLocal()
	_, _ = tracker.Connect(context.Background(), "bob")
	router := testRouter("alice")
	router.GET("/presence/online", NewPresenceHandler(tracker).Online)

	rec := doJSON(router, http.MethodGet, "/presence/online", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"online":["bob"]}`, rec.Body.String())
}
