package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petermazzocco/go-presenter/internal/auth"
	"github.com/petermazzocco/go-presenter/internal/handlers"
	"github.com/petermazzocco/go-presenter/internal/server"
	"github.com/petermazzocco/go-presenter/internal/store"
	"github.com/petermazzocco/go-presenter/internal/upload"
	"github.com/petermazzocco/go-presenter/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer runs the real API on an in-memory database and counts
// requests that reach it.
func newTestServer(t *testing.T) (*httptest.Server, *store.Store, *atomic.Int64) {
	t.Helper()
	s, err := store.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })

	secret := []byte("client-test-secret-0123456789")
	a := auth.NewAuthenticator(auth.NewCookieStore(secret, false, time.Hour), auth.NewTokenIssuer(secret, time.Hour))
	router := server.NewRouter(server.Deps{
		Handlers:  handlers.New(s, a, nil),
		Auth:      a,
		RateLimit: 10000,
	})

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, s, &hits
}

func loggedIn(t *testing.T, srv *httptest.Server, s *store.Store, email string) *Client {
	t.Helper()
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	_, err = s.CreateUser(context.Background(), "Test", email, hash)
	require.NoError(t, err)

	c := New(srv.URL, "")
	user, err := c.Login(context.Background(), email, "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, c.Token)
	assert.Equal(t, email, user.Email)
	return c
}

func TestLoginFailure(t *testing.T) {
	srv, _, _ := newTestServer(t)
	c := New(srv.URL, "")
	_, err := c.Login(context.Background(), "nobody@example.com", "hunter22")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Empty(t, c.Token)
}

func TestPresentationRoundTrip(t *testing.T) {
	srv, s, _ := newTestServer(t)
	c := loggedIn(t, srv, s, "owner@example.com")
	ctx := context.Background()

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", me.Email)

	p, err := c.CreatePresentation(ctx, NewPresentation{Title: "Lobby", IsPublic: true})
	require.NoError(t, err)

	for _, title := range []string{"a", "b", "c"} {
		_, err := c.CreateItem(ctx, p.ID, NewItem{Type: models.ItemTypeImage, Title: title, URL: "https://cdn.example.com/" + title})
		require.NoError(t, err)
	}
	_, err = c.CreateItem(ctx, p.ID, NewItem{Type: models.ItemTypePowerBI, Title: "dash", URL: "https://app.powerbi.com/view"})
	require.NoError(t, err)

	items, err := c.ListItems(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 4)

	anon := New(srv.URL, "")
	shared, err := anon.GetPresentation(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, shared.Items, 3)

	list, err := c.ListPresentations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.DeletePresentation(ctx, p.ID))
	_, err = c.GetPresentation(ctx, p.ID)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestLocalValidationSkipsServer(t *testing.T) {
	srv, _, hits := newTestServer(t)
	c := New(srv.URL, "token")
	ctx := context.Background()

	_, err := c.CreatePresentation(ctx, NewPresentation{Title: "  "})
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = c.CreateItem(ctx, "p1", NewItem{Type: "video", Title: "x", URL: "https://x"})
	assert.True(t, errors.As(err, &verr))

	_, err = c.UploadImage(ctx, "notes.txt", []byte("just some text"))
	assert.ErrorIs(t, err, upload.ErrUnsupportedType)

	_, err = c.UploadImage(ctx, "empty.png", nil)
	assert.ErrorIs(t, err, upload.ErrEmpty)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, upload.MaxUploadBytes)...)
	_, err = c.UploadImage(ctx, "huge.png", png)
	assert.ErrorIs(t, err, upload.ErrTooLarge)

	assert.Zero(t, hits.Load())
}

func TestUploadWithoutStorage(t *testing.T) {
	srv, s, _ := newTestServer(t)
	c := loggedIn(t, srv, s, "owner@example.com")

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 64)...)
	_, err := c.UploadImage(context.Background(), "a.png", png)
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
}

func TestAPIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusForbidden, "only the owner can change this presentation")
	}))
	defer srv.Close()

	err := New(srv.URL, "t").DeletePresentation(context.Background(), "p1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "only the owner can change this presentation (403)", apiErr.Error())
}
