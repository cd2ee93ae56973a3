package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/chat"
	"campus-chat/internal/middleware"
	"campus-chat/internal/models"
	"campus-chat/internal/storage"
)

func setupPrivateRouter(d *testDeps, images storage.ImageStore, userID string) *gin.Engine {
	h := NewPrivateChatHandler(d.svc, images, nil)
	r := testRouter(userID)
	r.POST("/private-chat", h.PostMessage)
	r.POST("/private-chat/image", h.PostImage)
	r.GET("/private-chat/:matchId", h.GetMessages)
	return r
}

func imageRequest(t *testing.T, fields map[string]string, withFile bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withFile {
		part, err := w.CreateFormFile("image", "pic.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/private-chat/image", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestPostPrivateMessage(t *testing.T) {
	d := newTestDeps(t)
	router := setupPrivateRouter(d, nil, "alice")
	matchID := uuid.New()
	bob := "bob"

	d.matches.On("GetMatch", mock.Anything, matchID).Return(models.Match{ID: matchID, User1ID: "alice", User2ID: "bob"}, nil).Once()
	d.privateMessages.On("Append", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.RecipientID != nil && *m.RecipientID == "bob" && m.CipherText != nil
	})).Return(models.Message{ID: 9, SurfaceID: matchID, SenderID: "alice", RecipientID: &bob, Delivered: true}, nil).Once()
	d.hub.On("Publish", matchID.String(), chat.EventPrivateMessage, mock.Anything).Once()

	rec := doJSON(router, http.MethodPost, "/private-chat", map[string]string{
		"match_id":     matchID.String(),
		"recipient_id": "bob",
		"text":         "coffee tomorrow?",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var view models.MessageView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "coffee tomorrow?", *view.Text)
	require.NotNil(t, view.Delivered)
	assert.True(t, *view.Delivered)
	assert.Contains(t, rec.Body.String(), `"seen":false`)
	d.hub.AssertExpectations(t)
}

func TestPostPrivateMessageForeignRecipient(t *testing.T) {
	d := newTestDeps(t)
	router := setupPrivateRouter(d, nil, "alice")
	matchID := uuid.New()

	d.matches.On("GetMatch", mock.Anything, matchID).Return(models.Match{ID: matchID, User1ID: "alice", User2ID: "bob"}, nil).Once()

	rec := doJSON(router, http.MethodPost, "/private-chat", map[string]string{
		"match_id":     matchID.String(),
		"recipient_id": "carol",
		"text":         "hi",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	d.privateMessages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestPostPrivateMessageNotParticipant(t *testing.T) {
	d := newTestDeps(t)
	router := setupPrivateRouter(d, nil, "carol")
	matchID := uuid.New()

	d.matches.On("GetMatch", mock.Anything, matchID).Return(models.Match{ID: matchID, User1ID: "alice", User2ID: "bob"}, nil).Once()

	rec := doJSON(router, http.MethodPost, "/private-chat", map[string]string{"match_id": matchID.String(), "text": "hi"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetPrivateMessagesMarksSeen(t *testing.T) {
	d := newTestDeps(t)
	router := setupPrivateRouter(d, nil, "alice")
	matchID := uuid.New()

	d.matches.On("GetMatch", mock.Anything, matchID).Return(models.Match{ID: matchID, User1ID: "alice", User2ID: "bob"}, nil).Once()
	d.privateMessages.On("MarkSeen", mock.Anything, matchID, "alice").Return(int64(0), nil).Once()
	d.privateMessages.On("ListOrdered", mock.Anything, matchID).Return([]models.Message{}, nil).Once()

	rec := doJSON(router, http.MethodGet, "/private-chat/"+matchID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"messages":[]}`, rec.Body.String())
	d.privateMessages.AssertExpectations(t)
}

func TestPostImageRequiresParticipant(t *testing.T) {
	d := newTestDeps(t)
	images := &fakeImageStore{url: "/uploads/x.png"}
	router := setupPrivateRouter(d, images, "carol")
	matchID := uuid.New()

	d.matches.On("GetMatch", mock.Anything, matchID).Return(models.Match{ID: matchID, User1ID: "alice", User2ID: "bob"}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, imageRequest(t, map[string]string{"match_id": matchID.String()}, true))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Zero(t, images.saved)
}

func TestPostImageSuccess(t *testing.T) {
	d := newTestDeps(t)
	images := &fakeImageStore{url: "/uploads/x.png"}
	router := setupPrivateRouter(d, images, "alice")
	matchID := uuid.New()
	bob, url := "bob", "/uploads/x.png"

	d.matches.On("GetMatch", mock.Anything, matchID).Return(models.Match{ID: matchID, User1ID: "alice", User2ID: "bob"}, nil).Twice()
	d.privateMessages.On("Append", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.ImageURL != nil && *m.ImageURL == url && m.CipherText == nil
	})).Return(models.Message{ID: 10, SurfaceID: matchID, SenderID: "alice", RecipientID: &bob, ImageURL: &url, Delivered: true}, nil).Once()
	d.hub.On("Publish", matchID.String(), chat.EventPrivateMessage, mock.Anything).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, imageRequest(t, map[string]string{"match_id": matchID.String(), "recipient_id": "bob"}, true))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), url)
	assert.Equal(t, 1, images.saved)
}

func TestPostImageMissingFile(t *testing.T) {
	d := newTestDeps(t)
	router := setupPrivateRouter(d, &fakeImageStore{}, "alice")
	matchID := uuid.New()

	d.matches.On("GetMatch", mock.Anything, matchID).Return(models.Match{ID: matchID, User1ID: "alice", User2ID: "bob"}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, imageRequest(t, map[string]string{"match_id": matchID.String()}, false))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostImageRejected(t *testing.T) {
	d := newTestDeps(t)
	router := setupPrivateRouter(d, &fakeImageStore{err: storage.ErrNotAnImage}, "alice")
	matchID := uuid.New()

	d.matches.On("GetMatch", mock.Anything, matchID).Return(models.Match{ID: matchID, User1ID: "alice", User2ID: "bob"}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, imageRequest(t, map[string]string{"match_id": matchID.String()}, true))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	d.privateMessages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestPostImageRemovedWhenSendFails(t *testing.T) {
	d := newTestDeps(t)
	images := &fakeImageStore{url: "/uploads/x.png"}
	router := setupPrivateRouter(d, images, "alice")
	matchID := uuid.New()

	d.matches.On("GetMatch", mock.Anything, matchID).Return(models.Match{ID: matchID, User1ID: "alice", User2ID: "bob"}, nil).Twice()
	d.privateMessages.On("Append", mock.Anything, mock.Anything).Return(models.Message{}, errors.New("db down")).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, imageRequest(t, map[string]string{"match_id": matchID.String()}, true))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []string{"/uploads/x.png"}, images.deleted)
	d.hub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostImageBodyCapped(t *testing.T) {
	d := newTestDeps(t)
	images := &fakeImageStore{url: "/uploads/x.png"}
	h := NewPrivateChatHandler(d.svc, images, nil)
	router := testRouter("alice")
	router.POST("/private-chat/image", middleware.BodyLimit(64), h.PostImage)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, imageRequest(t, map[string]string{"match_id": uuid.NewString()}, true))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Zero(t, images.saved)
	d.matches.AssertNotCalled(t, "GetMatch", mock.Anything, mock.Anything)
}
