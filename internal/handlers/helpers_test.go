package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/chat"
	"campus-chat/internal/crypto"
	"campus-chat/internal/mocks"
)

type testDeps struct {
	lounges         *mocks.LoungeRepositoryMock
	matches         *mocks.MatchRepositoryMock
	loungeMessages  *mocks.MessageRepositoryMock
	privateMessages *mocks.MessageRepositoryMock
	hub             *mocks.HubMock
	codec           *crypto.Codec
	svc             *chat.Service
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	codec, err := crypto.NewCodec(bytes.Repeat([]byte{4}, crypto.KeySize))
	require.NoError(t, err)

	d := &testDeps{
		lounges:         new(mocks.LoungeRepositoryMock),
		matches:         new(mocks.MatchRepositoryMock),
		loungeMessages:  new(mocks.MessageRepositoryMock),
		privateMessages: new(mocks.MessageRepositoryMock),
		hub:             new(mocks.HubMock),
		codec:           codec,
	}
	d.svc = chat.NewService(chat.NewGate(d.lounges, d.matches), d.lounges, d.matches, d.loungeMessages, d.privateMessages, codec, d.hub, nil)
	return d
}

func testRouter(userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type fakeImageStore struct {
	url     string
	err     error
	saved   int
	deleted []string
}

func (f *fakeImageStore) Save(_ context.Context, r io.Reader) (string, error) {
	f.saved++
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return f.url, f.err
}

func (f *fakeImageStore) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}
