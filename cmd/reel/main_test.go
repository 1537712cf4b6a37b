package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, profileCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		profileCalls.Add(1)
		io.WriteString(w, `{"googleId": "g-1", "name": "Ada", "username": "ada"}`)
	})
	mux.HandleFunc("/api/videos/user/g-1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"_id": "v1", "title": "Morning Run", "views": 1500, "duration": 75},
			{"_id": "v2", "title": "Cooking Pasta", "views": 20, "duration": 30}]`)
	})
	mux.HandleFunc("/api/users/g-1/follow-stats", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"followersCount": 10, "followingCount": 4}`)
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, serverURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`server:
  url: %s
cache:
  backend: bolt
  dir: %s
logging:
  file: %s
`, serverURL, filepath.Join(dir, "cache"), filepath.Join(dir, "reel.log"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_SessionLifecycle(t *testing.T) {
	var profileCalls atomic.Int32
	srv := newBackend(t, &profileCalls)
	cfg := writeConfig(t, srv.URL)

	_, err := execute(t, "--config", cfg, "profile")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthMissing)
	assert.Contains(t, err.Error(), "reel login")

	out, err := execute(t, "--config", cfg, "login", "--token", "tok")
	require.NoError(t, err)
	assert.Contains(t, out, "Token saved.")

	out, err = execute(t, "--config", cfg, "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "@ada")
	assert.Contains(t, out, "Followers: 10  Following: 4")
	assert.Contains(t, out, "Morning Run  1.5K views  1:15")
	assert.NotContains(t, out, "(cached)")
	assert.Equal(t, int32(1), profileCalls.Load())

	out, err = execute(t, "--config", cfg, "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada (cached)")
	assert.Equal(t, int32(1), profileCalls.Load(), "fresh cache must not hit the server")

	out, err = execute(t, "--config", cfg, "videos", "--filter", "pasta")
	require.NoError(t, err)
	assert.Contains(t, out, "Cooking Pasta")
	assert.NotContains(t, out, "Morning Run")

	_, err = execute(t, "--config", cfg, "refresh")
	require.NoError(t, err)
	assert.Equal(t, int32(2), profileCalls.Load())

	out, err = execute(t, "--config", cfg, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	_, err = execute(t, "--config", cfg, "profile")
	assert.ErrorIs(t, err, domain.ErrAuthMissing)
}

func TestCLI_Version(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "reel dev\n", out)
}

func TestCLI_MissingServerURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("logging:\n  file: %s\n", filepath.Join(t.TempDir(), "reel.log"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := execute(t, "--config", path, "profile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.url is not set")
}
