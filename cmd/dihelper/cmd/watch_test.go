package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const watchedConfig = `
dihelper:
  beans:
    heartbeat:
      run:
        repetitionPeriod: 1
        timeUnit: hours
`

func writeWatched(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWatchConfig_ReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeWatched(t, path, watchedConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := watchConfig(ctx, path, zap.NewNop())
	require.NoError(t, err)

	writeWatched(t, filepath.Join(dir, "other.yaml"), "x: 1\n")
	select {
	case <-changes:
		t.Fatal("change reported for another file")
	case <-time.After(2 * debounceDelay):
	}

	writeWatched(t, path, watchedConfig+"\n")
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("config change not reported")
	}
}

func TestWatchConfig_MissingDirectory(t *testing.T) {
	_, err := watchConfig(context.Background(), filepath.Join(t.TempDir(), "missing", "config.yaml"), zap.NewNop())
	assert.Error(t, err)
}

func TestRunner_RebuildsOnConfigChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeWatched(t, path, watchedConfig)

	opts := &globalOptions{configPath: path, logLevel: "error"}
	r := newRunner(opts, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.runWatching(ctx) }()

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lifecycle", nil))
		return rec.Code == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(1), r.generation.Load())

	// Give the watcher time to settle before touching the file.
	time.Sleep(2 * debounceDelay)
	writeWatched(t, path, "dihelper:\n  beans:\n    heartbeat:\n      run:\n        enabled: false\n")
	require.Eventually(t, func() bool { return r.generation.Load() == 2 }, 5*time.Second, 20*time.Millisecond)

	// An invalid config keeps the current beans.
	time.Sleep(2 * debounceDelay)
	writeWatched(t, path, "dihelper:\n  historyLimit: -1\n")
	time.Sleep(4 * debounceDelay)
	assert.Equal(t, int32(2), r.generation.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_ServeHTTPBeforeBuild(t *testing.T) {
	r := newRunner(&globalOptions{}, zap.NewNop())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/beans", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
