package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/chat"
	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

func setupLoungeRouter(d *testDeps, userID string) *gin.Engine {
	h := NewLoungeHandler(d.svc, nil)
	r := testRouter(userID)
	r.GET("/lounges/:surfaceId", h.GetLounge)
	r.POST("/lounges/:surfaceId/join", h.Join)
	r.POST("/lounges/:surfaceId/leave", h.Leave)
	r.POST("/lounges/:surfaceId/messages", h.PostMessage)
	r.GET("/lounges/:surfaceId/messages", h.GetMessages)
	return r
}

func TestPostLoungeMessageSuccess(t *testing.T) {
	d := newTestDeps(t)
	router := setupLoungeRouter(d, "alice")
	loungeID := uuid.New()

	d.lounges.On("IsMember", mock.Anything, loungeID, "alice").Return(true, nil).Once()
	d.loungeMessages.On("Append", mock.Anything, mock.AnythingOfType("models.Message")).
		Return(models.Message{ID: 1, SurfaceID: loungeID, SenderID: "alice", CreatedAt: time.Now()}, nil).Once()
	d.hub.On("Publish", loungeID.String(), chat.EventLoungeMessage, mock.Anything).Once()

	rec := doJSON(router, http.MethodPost, "/lounges/"+loungeID.String()+"/messages", map[string]string{"text": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var view models.MessageView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.Text)
	assert.Equal(t, "hello", *view.Text)
	assert.NotContains(t, rec.Body.String(), "ciphertext")
	assert.NotContains(t, rec.Body.String(), `"seen"`)

	d.loungeMessages.AssertExpectations(t)
	d.hub.AssertExpectations(t)
}

func TestPostLoungeMessageForbidden(t *testing.T) {
	d := newTestDeps(t)
	router := setupLoungeRouter(d, "mallory")
	loungeID := uuid.New()

	d.lounges.On("IsMember", mock.Anything, loungeID, "mallory").Return(false, nil).Once()

	rec := doJSON(router, http.MethodPost, "/lounges/"+loungeID.String()+"/messages", map[string]string{"text": "hello"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	d.loungeMessages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	d.hub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostLoungeMessageBadInput(t *testing.T) {
	d := newTestDeps(t)
	router := setupLoungeRouter(d, "alice")

	rec := doJSON(router, http.MethodPost, "/lounges/not-a-uuid/messages", map[string]string{"text": "hello"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPost, "/lounges/"+uuid.NewString()+"/messages", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostLoungeMessageStoreFailure(t *testing.T) {
	d := newTestDeps(t)
	router := setupLoungeRouter(d, "alice")
	loungeID := uuid.New()

	d.lounges.On("IsMember", mock.Anything, loungeID, "alice").Return(true, nil).Once()
	d.loungeMessages.On("Append", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

	rec := doJSON(router, http.MethodPost, "/lounges/"+loungeID.String()+"/messages", map[string]string{"text": "hello"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	d.hub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetLoungeMessages(t *testing.T) {
	d := newTestDeps(t)
	router := setupLoungeRouter(d, "alice")
	loungeID := uuid.New()
	ct, iv, err := d.codec.Encrypt("first!")
	require.NoError(t, err)

	d.lounges.On("IsMember", mock.Anything, loungeID, "alice").Return(true, nil).Once()
	d.loungeMessages.On("ListOrdered", mock.Anything, loungeID).Return([]models.Message{
		{ID: 1, SurfaceID: loungeID, SenderID: "bob", CipherText: &ct, IV: &iv},
	}, nil).Once()

	rec := doJSON(router, http.MethodGet, "/lounges/"+loungeID.String()+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Messages []models.MessageView `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "first!", *resp.Messages[0].Text)
}

func TestGetLoungeMessagesUnknownLounge(t *testing.T) {
	d := newTestDeps(t)
	router := setupLoungeRouter(d, "alice")
	loungeID := uuid.New()

	d.lounges.On("IsMember", mock.Anything, loungeID, "alice").Return(false, repositories.ErrLoungeNotFound).Once()

	rec := doJSON(router, http.MethodGet, "/lounges/"+loungeID.String()+"/messages", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinAndLeaveLounge(t *testing.T) {
	d := newTestDeps(t)
	router := setupLoungeRouter(d, "alice")
	loungeID := uuid.New()

	d.lounges.On("AddMember", mock.Anything, loungeID, "alice").Return(nil).Once()
	d.lounges.On("GetLounge", mock.Anything, loungeID).Return(models.LoungeDetails{Lounge: models.Lounge{ID: loungeID, Name: "Film Society"}, MemberCount: 1}, nil).Once()
	d.lounges.On("IsMember", mock.Anything, loungeID, "alice").Return(true, nil).Once()
	d.lounges.On("RemoveMember", mock.Anything, loungeID, "alice").Return(nil).Once()
	d.hub.On("LeaveUser", loungeID.String(), "alice").Once()

	rec := doJSON(router, http.MethodPost, "/lounges/"+loungeID.String()+"/join", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"joined":true`)

	rec = doJSON(router, http.MethodPost, "/lounges/"+loungeID.String()+"/leave", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	d.lounges.AssertExpectations(t)
	d.hub.AssertExpectations(t)
}
