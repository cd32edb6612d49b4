package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu     sync.Mutex
	status int
	body   string
	auth   []string
	paths  []string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auth = append(b.auth, r.Header.Get("Authorization"))
	b.paths = append(b.paths, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.status)
	_, _ = w.Write([]byte(b.body))
}

func (b *fakeBackend) reply(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status, b.body = status, body
}

// run executes the CLI against backend with an isolated config and token file.
func run(t *testing.T, backendURL, tokenFile string, args ...string) (string, error) {
	t.Helper()

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("backend:\n  base_url: "+backendURL+"\nlogging:\n  level: error\n"), 0o600))

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configFile, "--token-file", tokenFile}, args...))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestCLI_LoginListLogout(t *testing.T) {
	backend := &fakeBackend{status: http.StatusOK, body: `{"access_token":"jwt-1"}`}
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	tokenFile := filepath.Join(t.TempDir(), "token")

	out, err := run(t, ts.URL, tokenFile, "login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice")

	saved, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "jwt-1\n", string(saved))

	backend.reply(http.StatusOK, `[{"id":1,"position_code":"A1","position_name":"Clerk"}]`)
	out, err = run(t, ts.URL, tokenFile, "positions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"position_code": "A1"`)

	_, err = run(t, ts.URL, tokenFile, "logout")
	require.NoError(t, err)
	_, err = os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(err))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []string{"POST /auth/login", "GET /positions"}, backend.paths)
	assert.Equal(t, []string{"", "Bearer jwt-1"}, backend.auth)
}

func TestCLI_UnauthorizedClearsToken(t *testing.T) {
	backend := &fakeBackend{status: http.StatusUnauthorized, body: `{"message":"Unauthorized"}`}
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("expired"), 0o600))

	_, err := run(t, ts.URL, tokenFile, "pos", "delete", "4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positions login")

	_, err = os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(err), "stale token is removed")
}

func TestCLI_APIErrorMessage(t *testing.T) {
	backend := &fakeBackend{status: http.StatusConflict, body: `{"message":"position code already exists"}`}
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	_, err := run(t, ts.URL, filepath.Join(t.TempDir(), "token"), "positions", "create", "A1", "Clerk")
	require.Error(t, err)
	assert.Equal(t, "position code already exists", err.Error())
}

func TestCLI_LoginRequiresCredentials(t *testing.T) {
	t.Setenv("POSITIONS_USERNAME", "")
	t.Setenv("POSITIONS_PASSWORD", "")

	backend := &fakeBackend{status: http.StatusOK, body: `{}`}
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	_, err := run(t, ts.URL, filepath.Join(t.TempDir(), "token"), "login", "-u", "alice")
	assert.EqualError(t, err, "username and password are required")
	assert.Empty(t, backend.paths)
}

func TestCLI_Whoami(t *testing.T) {
	backend := &fakeBackend{status: http.StatusOK, body: `{}`}
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "7",
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tokenFile := filepath.Join(t.TempDir(), "token")
	_, err = run(t, ts.URL, tokenFile, "whoami")
	assert.ErrorContains(t, err, "not logged in")

	require.NoError(t, os.WriteFile(tokenFile, []byte(token), 0o600))
	out, err := run(t, ts.URL, tokenFile, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"username": "alice"`)
	assert.Contains(t, out, `"subject": "7"`)
	assert.Empty(t, backend.paths, "whoami never calls the backend")
}

func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := parseID("12")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	for _, in := range []string{"", "0", "-3", "abc", "1.5"} {
		_, err := parseID(in)
		assert.Error(t, err, in)
	}
}
