package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/catalog"
	"github.com/jmgilman/go/catalog/feed"
	"github.com/jmgilman/go/catalog/github"
	"github.com/jmgilman/go/catalog/github/mocks"
	"github.com/jmgilman/go/catalog/host"
	"github.com/jmgilman/go/catalog/stars"
	"github.com/jmgilman/go/catalog/store"
)

const (
	integrationCatalog = `{"custom_nodes": [
		{"title": "AB", "reference": "https://github.com/a/b", "description": "first"},
		{"title": "CD", "reference": "https://github.com/c/d.git"},
		{"title": "Local Pack", "reference": "https://example.com/pack.zip"}
	]}`
	integrationStats = `{"https://github.com/c/d": {"stars": 12}, "a/b": {"stars": 99}}`
)

func TestIntegration_CatalogThenStars(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/custom-node-list.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(integrationCatalog))
	})
	mux.HandleFunc("/github-stats.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(integrationStats))
	})
	feedServer := httptest.NewServer(mux)
	t.Cleanup(feedServer.Close)

	provider := &mocks.ProviderMock{
		GetRepositoryStarsFunc: func(_ context.Context, owner, repo string) (*github.RepositoryStars, error) {
			return &github.RepositoryStars{Owner: owner, Name: repo, Stars: 321}, nil
		},
	}
	fetcher, err := stars.New(provider, stars.WithProfile(stars.Profile{BatchSize: 10}))
	require.NoError(t, err)

	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("custom_nodes/b", 0o755))

	syncer, err := catalog.NewSyncer(
		store.New(fs),
		feed.New(
			feed.WithCatalogURL(feedServer.URL+"/custom-node-list.json"),
			feed.WithStatsURL(feedServer.URL+"/github-stats.json"),
		),
		fetcher,
		catalog.WithInstalledSet(host.NewDirectorySet(fs, "custom_nodes")),
	)
	require.NoError(t, err)
	server := newTestServer(t, syncer, WithRateLimitChecker(provider))

	// First read refreshes from the feeds; a/b has no local value yet so the
	// precomputed feed supplies both.
	rec := do(t, server, http.MethodGet, "/store/available-plugins", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["from_cache"])
	assert.InDelta(t, 3, body["total_count"], 0)
	assert.InDelta(t, 1, body["installed_count"], 0)
	assert.Equal(t, map[string]any{
		"local":             float64(0),
		"manager":           float64(2),
		"none":              float64(1),
		"need_update_stars": false,
	}, body["stars_stats"])

	// Both keys were backfilled into the star cache, so an incremental
	// refresh has nothing to do.
	rec = do(t, server, http.MethodPost, "/store/update-stars", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0, decode(t, rec)["total"], 0)
	assert.Empty(t, provider.GetRepositoryStarsCalls())

	rec = do(t, server, http.MethodPost, "/store/update-stars", `{"force_full": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.InDelta(t, 2, body["updated"], 0)
	assert.Len(t, provider.GetRepositoryStarsCalls(), 2)

	// The next read is served from cache and reflects the refreshed stars.
	rec = do(t, server, http.MethodGet, "/store/available-plugins", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, true, body["from_cache"])
	plugins := body["plugins"].([]any)
	first := plugins[0].(map[string]any)
	assert.Equal(t, "a/b", first["repo_key"])
	assert.InDelta(t, 321, first["stars"], 0)
	assert.Equal(t, "local", first["stars_source"])
	assert.Equal(t, true, first["is_installed"])

	rec = do(t, server, http.MethodPost, "/store/update-stars-batch", `{"repo_keys": ["a/b", "c/d"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.InDelta(t, 0, body["updated"], 0)
	assert.Equal(t, map[string]any{"a/b": float64(321), "c/d": float64(321)}, body["results"])
}
