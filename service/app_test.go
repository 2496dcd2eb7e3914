package service

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blogapi/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postsFile = `posts:
  - title: Hello
    slug: hello
    author: Bob
    date: "2024-05-01"
    content: First post
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(postsFile), 0o644))

	cfg := config.Default()
	cfg.API.Key = "k"
	cfg.Content.Driver = "file"
	cfg.Content.File.Path = path
	cfg.HTTP.ShutdownTimeout = 2 * time.Second
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestNewAppDrivers(t *testing.T) {
	log := NewLogger(config.LoggingConfig{Level: "error", Format: "text"}, io.Discard)

	t.Run("memory store with cache", func(t *testing.T) {
		app, err := NewApp(context.Background(), testConfig(t), log)
		require.NoError(t, err)
		defer app.Close()
		assert.NotNil(t, app.cache)
	})

	t.Run("badger store without cache", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Driver = "badger"
		cfg.Storage.Badger = config.BadgerConfig{InMemory: true}
		cfg.Content.CacheTTL = 0

		app, err := NewApp(context.Background(), cfg, log)
		require.NoError(t, err)
		defer app.Close()
		assert.Nil(t, app.cache)
	})

	t.Run("unknown drivers", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Driver = "redis"
		_, err := NewApp(context.Background(), cfg, log)
		assert.ErrorContains(t, err, "unknown storage driver")

		cfg = testConfig(t)
		cfg.Content.Driver = "wordpress"
		_, err = NewApp(context.Background(), cfg, log)
		assert.ErrorContains(t, err, "unknown content driver")
	})
}

func TestAppServeAndShutdown(t *testing.T) {
	log := NewLogger(config.LoggingConfig{Level: "error", Format: "text"}, io.Discard)
	app, err := NewApp(context.Background(), testConfig(t), log)
	require.NoError(t, err)
	defer app.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	req, err := http.NewRequest("GET", base+"/api/posts?author=bob", nil)
	require.NoError(t, err)
	req.Header.Set("x-api-key", "k")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"slug":"hello"`)

	resp, err = http.Post(base+"/api/comments", "application/json", strings.NewReader(`{"postSlug":"hello","author":"A","content":"c"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestReloadPostsClearsCache(t *testing.T) {
	log := NewLogger(config.LoggingConfig{Level: "error", Format: "text"}, io.Discard)
	cfg := testConfig(t)
	cfg.Content.CacheTTL = time.Hour
	app, err := NewApp(context.Background(), cfg, log)
	require.NoError(t, err)
	defer app.Close()

	fetch := func() string {
		req := httptest.NewRequest("GET", "/api/posts", nil)
		req.Header.Set("x-api-key", "k")
		w := httptest.NewRecorder()
		app.Handler().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		return w.Body.String()
	}

	assert.Contains(t, fetch(), `"slug":"hello"`)

	edited := strings.Replace(postsFile, "slug: hello", "slug: hello-again", 1)
	require.NoError(t, os.WriteFile(cfg.Content.File.Path, []byte(edited), 0o644))
	assert.Contains(t, fetch(), `"slug":"hello"`)

	app.ReloadPosts()
	assert.Contains(t, fetch(), `"slug":"hello-again"`)
}

func TestReloadOnHangup(t *testing.T) {
	log := NewLogger(config.LoggingConfig{Level: "error", Format: "text"}, io.Discard)
	cfg := testConfig(t)
	cfg.Content.CacheTTL = time.Hour
	app, err := NewApp(context.Background(), cfg, log)
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.reloadOnHangup(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hangup loop did not stop")
	}
}
