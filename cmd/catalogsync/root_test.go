package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/catalog"
)

const testCatalog = `{"custom_nodes": [
	{"title": "AB", "reference": "https://github.com/a/b"},
	{"title": "Pack", "reference": "https://example.com/pack.zip"}
]}`

// newAPIServer serves the catalog feeds and a minimal popularity API.
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/list.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testCatalog))
	})
	mux.HandleFunc("/stats.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"a/b": {"stars": 7}}`))
	})
	mux.HandleFunc("/api/rate_limit", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resources": {"core": {"limit": 60, "remaining": 58, "used": 2, "reset": 1748782800}}}`))
	})
	mux.HandleFunc("/api/repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "` + r.PathValue("repo") + `", "owner": {"login": "` + r.PathValue("owner") + `"}, "stargazers_count": 41}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// writeConfig writes a config file pointing every remote at server.
func writeConfig(t *testing.T, server *httptest.Server) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalogsync.yaml")
	content := "feed:\n" +
		"  catalog_url: " + server.URL + "/list.json\n" +
		"  stats_url: " + server.URL + "/stats.json\n" +
		"github:\n" +
		"  base_url: " + server.URL + "/api/\n" +
		"stars:\n" +
		"  anonymous:\n" +
		"    batch_size: 5\n" +
		"    delay: 1ms\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()

	// Keep the developer's token out of the popularity API requests.
	t.Setenv("GITHUB_TOKEN", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	if err := cmd.Execute(); err != nil {
		return nil, err
	}

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	return out, nil
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	cmd := newRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"serve", "catalog", "refresh-stars", "update-stars", "rate-limit"})
}

func TestCatalogCommand(t *testing.T) {
	server := newAPIServer(t)
	config := writeConfig(t, server)
	dataDir := t.TempDir()

	out, err := execute(t, "--config", config, "--data-dir", dataDir, "catalog")

	require.NoError(t, err)
	assert.InDelta(t, 2, out["total_count"], 0)
	assert.Equal(t, false, out["from_cache"])
	assert.Len(t, out["plugins"], 2)
	assert.FileExists(t, filepath.Join(dataDir, "plugins_database.json"))

	out, err = execute(t, "--config", config, "--data-dir", dataDir, "catalog", "--summary")

	require.NoError(t, err)
	assert.Equal(t, true, out["from_cache"])
	assert.NotContains(t, out, "plugins")
}

func TestRefreshStarsCommand(t *testing.T) {
	server := newAPIServer(t)
	config := writeConfig(t, server)
	dataDir := t.TempDir()

	_, err := execute(t, "--config", config, "--data-dir", dataDir, "catalog")
	require.NoError(t, err)

	out, err := execute(t, "--config", config, "--data-dir", dataDir, "refresh-stars", "--force-full")

	require.NoError(t, err)
	assert.InDelta(t, 1, out["attempted"], 0)
	assert.InDelta(t, 1, out["succeeded"], 0)
	assert.Equal(t, false, out["throttled"])
}

func TestUpdateStarsCommand(t *testing.T) {
	server := newAPIServer(t)
	config := writeConfig(t, server)

	t.Run("requires a catalog", func(t *testing.T) {
		_, err := execute(t, "--config", config, "--data-dir", t.TempDir(), "update-stars", "a/b")

		require.Error(t, err)
		assert.Equal(t, catalog.CodeNoCatalog, errors.GetCode(err))
	})

	t.Run("fetches keys missing from the cache", func(t *testing.T) {
		dataDir := t.TempDir()
		_, err := execute(t, "--config", config, "--data-dir", dataDir, "catalog")
		require.NoError(t, err)

		out, err := execute(t, "--config", config, "--data-dir", dataDir,
			"update-stars", "a/b", "https://github.com/c/d.git")

		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a/b": float64(7), "c/d": float64(41)}, out["results"])
		assert.InDelta(t, 1, out["updated"], 0)
		assert.InDelta(t, 2, out["total"], 0)
	})

	t.Run("rejects malformed key", func(t *testing.T) {
		_, err := execute(t, "--config", config, "--data-dir", t.TempDir(), "update-stars", "not-a-key")

		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})
}

func TestRateLimitCommand(t *testing.T) {
	server := newAPIServer(t)
	config := writeConfig(t, server)

	out, err := execute(t, "--config", config, "--data-dir", t.TempDir(), "rate-limit")

	require.NoError(t, err)
	assert.InDelta(t, 60, out["limit"], 0)
	assert.InDelta(t, 58, out["remaining"], 0)
	assert.Equal(t, false, out["authenticated"])
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stars:\n  anonymous:\n    batch_size: 0\n"), 0o644))

	_, err := execute(t, "--config", path, "rate-limit")

	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}
