package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/petermazzocco/go-presenter/internal/auth"
	"github.com/petermazzocco/go-presenter/internal/handlers"
	"github.com/petermazzocco/go-presenter/internal/player"
	"github.com/petermazzocco/go-presenter/internal/server"
	"github.com/petermazzocco/go-presenter/internal/store"
	"github.com/petermazzocco/go-presenter/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type cliEnv struct {
	server    *httptest.Server
	tokenFile string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	s, err := store.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })

	secret := []byte("cli-test-secret-0123456789")
	a := auth.NewAuthenticator(auth.NewCookieStore(secret, false, time.Hour), auth.NewTokenIssuer(secret, time.Hour))
	srv := httptest.NewServer(server.NewRouter(server.Deps{
		Handlers:  handlers.New(s, a, nil),
		Auth:      a,
		RateLimit: 10000,
	}))
	t.Cleanup(srv.Close)

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	_, err = s.CreateUser(context.Background(), "Ana", "ana@example.com", hash)
	require.NoError(t, err)

	return &cliEnv{server: srv, tokenFile: filepath.Join(t.TempDir(), "presentctl", "token")}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e *cliEnv) runWithInput(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--server", e.server.URL, "--token-file", e.tokenFile}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLoginSavesToken(t *testing.T) {
	e := newCLIEnv(t)

	_, stderr, err := e.run(t, "login", "--email", "ana@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error:")
	assert.NoFileExists(t, e.tokenFile)

	out, _, err := e.run(t, "login", "--email", "ana@example.com", "--password", "hunter22")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as ana@example.com")

	info, err := os.Stat(e.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoginPromptsForPassword(t *testing.T) {
	t.Setenv("PRESENTCTL_PASSWORD", "")
	e := newCLIEnv(t)

	out, stderr, err := e.runWithInput(t, "hunter22\n", "login", "--email", "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Password: ")
	assert.Contains(t, out, "Signed in as ana@example.com")
	assert.FileExists(t, e.tokenFile)
}

func (e *cliEnv) login(t *testing.T) {
	t.Helper()
	_, _, err := e.run(t, "login", "--email", "ana@example.com", "--password", "hunter22")
	require.NoError(t, err)
}

func (e *cliEnv) create(t *testing.T, args ...string) string {
	t.Helper()
	out, _, err := e.run(t, append([]string{"create"}, args...)...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return lines[len(lines)-1]
}

func TestManageFlow(t *testing.T) {
	e := newCLIEnv(t)
	_, _, err := e.run(t, "login", "--email", "ana@example.com", "--password", "hunter22")
	require.NoError(t, err)

	out, _, err := e.run(t, "create", "Lobby screen", "--public", "--refresh", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	id := lines[len(lines)-1]

	for _, title := range []string{"one", "two", "three"} {
		_, _, err := e.run(t, "add", id, "--title", title, "--url", "https://cdn.example.com/"+title+".jpg")
		require.NoError(t, err)
	}
	_, _, err = e.run(t, "add", id, "--title", "still", "--url", "https://cdn.example.com/s.jpg", "--display", "0")
	require.NoError(t, err)

	_, _, err = e.run(t, "add", id, "--title", "both", "--url", "https://x", "--file", "x.png")
	assert.Error(t, err)

	out, _, err = e.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Lobby screen")
	assert.Contains(t, out, "2m")

	out, _, err = e.run(t, "move", id, "0", "2")
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, rows, 5)
	assert.Contains(t, rows[1], "two")
	assert.Contains(t, rows[2], "three")
	assert.Contains(t, rows[3], "one")
	assert.Contains(t, rows[4], "manual")

	_, _, err = e.run(t, "move", id, "0", "9")
	assert.Error(t, err)

	out, _, err = e.run(t, "items", id)
	require.NoError(t, err)
	rows = strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, rows[1], "two")

	_, _, err = e.run(t, "delete", id)
	require.NoError(t, err)
	_, stderr, err := e.run(t, "items", id)
	require.Error(t, err)
	assert.Contains(t, stderr, "not found")
}

func TestUploadRejectsLocally(t *testing.T) {
	e := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, stderr, err := e.run(t, "--token", "x", "upload", path)
	require.Error(t, err)
	assert.Contains(t, stderr, "unsupported")
}

func TestDescribeFrame(t *testing.T) {
	f := player.Frame{
		Item:        models.PresentationItem{Title: "Welcome", Type: models.ItemTypeImage, URL: "https://cdn.example.com/w.jpg"},
		Index:       0,
		Total:       3,
		Remaining:   59*time.Second + 500*time.Millisecond,
		AutoAdvance: true,
		RefreshIn:   5 * time.Minute,
	}
	assert.Equal(t, "[1/3] Welcome (image) https://cdn.example.com/w.jpg | next in 1:00 | refresh in 5:00", describeFrame(f))

	f.AutoAdvance = false
	f.MediaErr = player.ErrInvalidMediaURL
	f.FetchErr = errors.New("boom")
	assert.Equal(t, "[1/3] Welcome (image) | cannot display: invalid media url | stays on screen | refresh in 5:00 | refresh failed: boom", describeFrame(f))

	assert.Equal(t, "No items to show yet | refresh in 0:01", describeFrame(player.Frame{Empty: true, RefreshIn: 200 * time.Millisecond}))
}

func TestTermRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := newTermRenderer(&buf)
	r.Render(player.Frame{
		Item:  models.PresentationItem{Title: "Sales", Type: models.ItemTypePowerBI, URL: "https://app.powerbi.com/x"},
		Total: 1,
	})
	assert.Equal(t, "\r\033[K[1/1] Sales (powerbi) https://app.powerbi.com/x | stays on screen | refresh in 0:00", buf.String())
}

func TestMoveByItemID(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t)
	id := e.create(t, "Hall")
	for _, title := range []string{"one", "two", "three"} {
		_, _, err := e.run(t, "add", id, "--title", title, "--url", "https://cdn.example.com/"+title+".jpg")
		require.NoError(t, err)
	}

	out, _, err := e.run(t, "items", id)
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, rows, 4)
	threeID := strings.Fields(rows[3])[1]

	out, _, err = e.run(t, "move", id, threeID, "0")
	require.NoError(t, err)
	rows = strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, rows[1], "three")
	assert.Contains(t, rows[2], "one")
	assert.Contains(t, rows[3], "two")

	_, stderr, err := e.run(t, "move", id, "not-an-item", "0")
	require.Error(t, err)
	assert.Contains(t, stderr, `no item "not-an-item"`)
}

func TestResolvePosition(t *testing.T) {
	list := []models.PresentationItem{{ID: "a1"}, {ID: "b2"}}

	n, err := resolvePosition(list, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = resolvePosition(list, "b2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = resolvePosition(list, "zz")
	assert.Error(t, err)
}

func TestPresentationSourceFollowsRefreshInterval(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t)
	id := e.create(t, "Lobby", "--refresh", "10")
	_, _, err := e.run(t, "add", id, "--title", "one", "--url", "https://cdn.example.com/one.jpg")
	require.NoError(t, err)

	app := &App{Server: e.server.URL, TokenFile: e.tokenFile}
	c, err := app.client()
	require.NoError(t, err)
	src := presentationSource(c, id)

	pl, err := src.Playlist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, pl.RefreshEvery)
	require.Len(t, pl.Items, 1)
	assert.Equal(t, "one", pl.Items[0].Title)

	out, _, err := e.run(t, "update", id, "--refresh", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "refresh 2m")

	pl, err = src.Playlist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, pl.RefreshEvery)
}

func TestUpdateNeedsAFlag(t *testing.T) {
	e := newCLIEnv(t)
	_, stderr, err := e.run(t, "--token", "x", "update", "some-id")
	require.Error(t, err)
	assert.Contains(t, stderr, "nothing to update")
}
