package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/catalog"
)

type staticToken string

func (s staticToken) GetToken() (string, bool) {
	return string(s), s != ""
}

func newFeedServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestFetcher_FetchCatalog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantCount int
	}{
		{
			name:      "bare array",
			body:      `[{"title": "A", "reference": "https://github.com/o/a", "description": "first"}, {"title": "B", "reference": "https://github.com/o/b"}]`,
			wantCount: 2,
		},
		{
			name:      "custom_nodes envelope",
			body:      `{"custom_nodes": [{"title": "A", "reference": "https://github.com/o/a", "author": "o", "install_type": "git-clone", "files": ["https://github.com/o/a"]}]}`,
			wantCount: 1,
		},
		{
			name:      "empty array",
			body:      `[]`,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newFeedServer(t, map[string]http.HandlerFunc{
				"/list.json": jsonHandler(http.StatusOK, tt.body),
			})
			f := New(WithCatalogURL(server.URL + "/list.json"))

			entries, err := f.FetchCatalog(context.Background())

			require.NoError(t, err)
			assert.Len(t, entries, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, "A", entries[0].Title)
				assert.Equal(t, "https://github.com/o/a", entries[0].Reference)
			}
		})
	}
}

func TestFetcher_FetchCatalogErrors(t *testing.T) {
	t.Parallel()

	t.Run("non-2xx status", func(t *testing.T) {
		t.Parallel()

		server := newFeedServer(t, map[string]http.HandlerFunc{
			"/list.json": jsonHandler(http.StatusServiceUnavailable, `{"message": "down"}`),
		})
		f := New(WithCatalogURL(server.URL + "/list.json"))

		_, err := f.FetchCatalog(context.Background())

		require.Error(t, err)
		assert.Equal(t, catalog.CodeHTTPStatus, errors.GetCode(err))
		assert.Equal(t, http.StatusServiceUnavailable, catalog.HTTPStatus(err))
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := newFeedServer(t, map[string]http.HandlerFunc{
			"/list.json": func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			},
		})
		t.Cleanup(func() { close(release) })
		f := New(WithCatalogURL(server.URL+"/list.json"), WithTimeout(50*time.Millisecond))

		_, err := f.FetchCatalog(context.Background())

		require.Error(t, err)
		assert.Equal(t, catalog.CodeTimeout, errors.GetCode(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL + "/list.json"
		server.Close()

		_, err := New(WithCatalogURL(url)).FetchCatalog(context.Background())

		require.Error(t, err)
		assert.Equal(t, catalog.CodeTransport, errors.GetCode(err))
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		server := newFeedServer(t, map[string]http.HandlerFunc{
			"/list.json": jsonHandler(http.StatusOK, `{"nodes": 1}`),
		})

		_, err := New(WithCatalogURL(server.URL + "/list.json")).FetchCatalog(context.Background())

		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})
}

func TestFetcher_FetchPrecomputedStars(t *testing.T) {
	t.Parallel()

	server := newFeedServer(t, map[string]http.HandlerFunc{
		"/stats.json": jsonHandler(http.StatusOK, `{
			"owner/alpha": {"stars": 120, "last_update": "2025-01-01"},
			"https://github.com/owner/beta": {"stars": 7},
			"owner/gamma": {"last_update": "2025-01-01"},
			"owner/delta": {"stars": "many"},
			"not-a-repo": {"stars": 3}
		}`),
	})
	f := New(WithStatsURL(server.URL + "/stats.json"))

	stars, err := f.FetchPrecomputedStars(context.Background())

	require.NoError(t, err)
	assert.Equal(t, catalog.StarCache{"owner/alpha": 120, "owner/beta": 7}, stars)
}

func TestDecodeStats_OutOfRange(t *testing.T) {
	t.Parallel()

	stars, skipped, err := decodeStats([]byte(`{
		"a/b": {"stars": -5},
		"c/d": {"stars": 1e30},
		"e/f": {"stars": 2147483647},
		"g/h": {"stars": 0}
	}`))

	require.NoError(t, err)
	assert.Equal(t, catalog.StarCache{"e/f": 2147483647, "g/h": 0}, stars)
	assert.Equal(t, 2, skipped)
}

func TestFetcher_Credentials(t *testing.T) {
	t.Parallel()

	auth := make(chan string, 2)
	server := newFeedServer(t, map[string]http.HandlerFunc{
		"/list.json": func(w http.ResponseWriter, r *http.Request) {
			auth <- r.Header.Get("Authorization")
			jsonHandler(http.StatusOK, `[]`)(w, r)
		},
	})

	_, err := New(WithCatalogURL(server.URL+"/list.json"), WithCredentials(staticToken("secret"))).FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", <-auth)

	_, err = New(WithCatalogURL(server.URL+"/list.json"), WithCredentials(staticToken(""))).FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Empty(t, <-auth)
}

func TestNormalizeStatsKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   catalog.RepoKey
		wantOK bool
	}{
		{raw: "owner/repo", want: "owner/repo", wantOK: true},
		{raw: "owner/repo.git", want: "owner/repo", wantOK: true},
		{raw: "https://github.com/owner/repo/", want: "owner/repo", wantOK: true},
		{raw: "https://gitlab.com/owner/repo", wantOK: false},
		{raw: "owner", wantOK: false},
		{raw: "a/b/c", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, ok := normalizeStatsKey(tt.raw)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
