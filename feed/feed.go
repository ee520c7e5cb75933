// Package feed fetches the remote catalog feeds: the authoritative plugin
// list and the precomputed popularity feed.
//
// Each call is a single HTTP GET bounded by the configured timeout. The
// fetcher never retries; callers decide what a failure means.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/catalog"
	"github.com/jmgilman/go/catalog/internal/logging"
)

const (
	// DefaultCatalogURL is the primary catalog feed.
	DefaultCatalogURL = "https://raw.githubusercontent.com/ltdrdata/ComfyUI-Manager/main/custom-node-list.json"

	// DefaultStatsURL is the precomputed popularity feed.
	DefaultStatsURL = "https://raw.githubusercontent.com/ltdrdata/ComfyUI-Manager/main/github-stats.json"

	// DefaultTimeout bounds each feed request.
	DefaultTimeout = 30 * time.Second

	userAgent = "catalogsync/1.0"
)

// Fetcher implements catalog.FeedFetcher over resty.
type Fetcher struct {
	client     *resty.Client
	catalogURL string
	statsURL   string
	logger     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCatalogURL overrides the primary feed URL.
func WithCatalogURL(url string) Option {
	return func(f *Fetcher) {
		if url != "" {
			f.catalogURL = url
		}
	}
}

// WithStatsURL overrides the popularity feed URL.
func WithStatsURL(url string) Option {
	return func(f *Fetcher) {
		if url != "" {
			f.statsURL = url
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.client.SetTimeout(timeout)
		}
	}
}

// WithCredentials adds an Authorization header to every request when the
// provider supplies a token.
func WithCredentials(credentials catalog.CredentialProvider) Option {
	return func(f *Fetcher) {
		if credentials == nil {
			return
		}
		if token, ok := credentials.GetToken(); ok {
			f.client.SetAuthToken(token)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logging.OrNop(logger)
	}
}

// New creates a Fetcher with the default feed URLs and timeout.
func New(opts ...Option) *Fetcher {
	client := resty.New().
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	f := &Fetcher{
		client:     client,
		catalogURL: DefaultCatalogURL,
		statsURL:   DefaultStatsURL,
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchCatalog retrieves the primary catalog feed. The feed may be a bare
// JSON array of entries or an object holding the array under "custom_nodes".
func (f *Fetcher) FetchCatalog(ctx context.Context) ([]catalog.RawCatalogEntry, error) {
	body, err := f.get(ctx, f.catalogURL)
	if err != nil {
		return nil, err
	}

	entries, err := decodeCatalog(body)
	if err != nil {
		return nil, errors.WithContext(err, "url", f.catalogURL)
	}

	f.logger.DebugContext(ctx, "fetched catalog feed", "url", f.catalogURL, "entries", len(entries))
	return entries, nil
}

// FetchPrecomputedStars retrieves the popularity feed. Entries without a
// numeric "stars" field and keys that are not repositories are skipped.
func (f *Fetcher) FetchPrecomputedStars(ctx context.Context) (catalog.StarCache, error) {
	body, err := f.get(ctx, f.statsURL)
	if err != nil {
		return nil, err
	}

	stars, skipped, err := decodeStats(body)
	if err != nil {
		return nil, errors.WithContext(err, "url", f.statsURL)
	}

	f.logger.DebugContext(ctx, "fetched popularity feed",
		"url", f.statsURL,
		"repositories", len(stars),
		"skipped", skipped,
	)
	return stars, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, catalog.WrapTransportError(err, url)
	}
	if !resp.IsSuccess() {
		return nil, catalog.NewHTTPStatusError(url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// normalizeStatsKey accepts either an owner/repo key or a repository URL.
func normalizeStatsKey(raw string) (catalog.RepoKey, bool) {
	if key, ok := catalog.ResolveRepoKey(raw); ok {
		return key, true
	}

	raw = strings.Trim(strings.TrimSpace(raw), "/")
	owner, name, ok := strings.Cut(raw, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") || strings.Contains(owner, ":") {
		return "", false
	}
	return catalog.RepoKey(owner + "/" + strings.TrimSuffix(name, ".git")), true
}

var _ catalog.FeedFetcher = (*Fetcher)(nil)
