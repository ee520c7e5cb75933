// Package sdk provides a popularity API provider implementation using the
// go-github SDK.
package sdk

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/go-github/v67/github"
	"github.com/jmgilman/go/errors"

	gh "github.com/jmgilman/go/catalog/github"
)

// SDKProvider implements github.Provider using the go-github SDK.
type SDKProvider struct {
	client *github.Client
}

// NewSDKProvider creates a provider using the GitHub SDK. Without WithToken
// or WithClient the provider is anonymous.
//
// Example with token authentication:
//
//	provider, err := sdk.NewSDKProvider(sdk.WithToken("ghp_..."))
//
// Example against a test server:
//
//	provider, err := sdk.NewSDKProvider(sdk.WithBaseURL(server.URL))
func NewSDKProvider(opts ...Option) (*SDKProvider, error) {
	cfg := &config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	client := cfg.client
	if client == nil {
		client = github.NewClient(cfg.httpClient)
	}
	if cfg.token != "" {
		client = client.WithAuthToken(cfg.token)
	}
	if cfg.baseURL != "" {
		baseURL, err := client.BaseURL.Parse(cfg.baseURL)
		if err != nil {
			err = errors.Wrap(err, errors.CodeInvalidInput, "invalid base URL")
			return nil, errors.WithContext(err, "field", "base_url")
		}
		client.BaseURL = baseURL
	}

	return &SDKProvider{
		client: client,
	}, nil
}

// config holds configuration for SDKProvider.
type config struct {
	client     *github.Client
	httpClient *http.Client
	token      string
	baseURL    string
}

// Option configures the SDK provider.
type Option func(*config) error

// WithToken sets the authentication token for the SDK provider.
func WithToken(token string) Option {
	return func(cfg *config) error {
		if token == "" {
			err := errors.New(errors.CodeInvalidInput, "token cannot be empty")
			return errors.WithContext(err, "field", "token")
		}
		cfg.token = token
		return nil
	}
}

// WithClient sets a custom GitHub client for the SDK provider.
// This allows full control over the HTTP client configuration,
// authentication, and other advanced settings.
func WithClient(client *github.Client) Option {
	return func(cfg *config) error {
		if client == nil {
			err := errors.New(errors.CodeInvalidInput, "client cannot be nil")
			return errors.WithContext(err, "field", "client")
		}
		cfg.client = client
		return nil
	}
}

// WithHTTPClient sets the HTTP client used when no GitHub client is given.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(cfg *config) error {
		if httpClient == nil {
			err := errors.New(errors.CodeInvalidInput, "http client cannot be nil")
			return errors.WithContext(err, "field", "http_client")
		}
		cfg.httpClient = httpClient
		return nil
	}
}

// WithBaseURL overrides the REST API base URL.
func WithBaseURL(baseURL string) Option {
	return func(cfg *config) error {
		if baseURL == "" {
			err := errors.New(errors.CodeInvalidInput, "base URL cannot be empty")
			return errors.WithContext(err, "field", "base_url")
		}
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		cfg.baseURL = baseURL
		return nil
	}
}

// GetRepositoryStars retrieves the star count of a repository.
func (s *SDKProvider) GetRepositoryStars(ctx context.Context, owner, repo string) (*gh.RepositoryStars, error) {
	ghRepo, resp, err := s.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, s.wrapError(err, resp, "failed to get repository")
	}

	stars := &gh.RepositoryStars{
		Owner:    owner,
		Name:     ghRepo.GetName(),
		FullName: ghRepo.GetFullName(),
		Stars:    ghRepo.GetStargazersCount(),
		Rate:     convertRate(responseRate(resp)),
	}
	if o := ghRepo.GetOwner(); o != nil && o.GetLogin() != "" {
		stars.Owner = o.GetLogin()
	}
	if stars.Name == "" {
		stars.Name = repo
	}

	return stars, nil
}

// GetRateLimit retrieves the caller's current core API rate limit.
func (s *SDKProvider) GetRateLimit(ctx context.Context) (*gh.RateLimit, error) {
	limits, resp, err := s.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, s.wrapError(err, resp, "failed to get rate limit")
	}

	rate := convertRate(limits.GetCore())
	if rate == nil {
		return nil, errors.New(errors.CodeInternal, "rate limit response has no core quota")
	}
	return rate, nil
}

// wrapError wraps go-github errors with appropriate error codes.
func (s *SDKProvider) wrapError(err error, resp *github.Response, message string) error {
	if err == nil {
		return nil
	}

	// Extract status code and rate from the response
	statusCode := 0
	var rate *github.Rate
	if resp != nil {
		statusCode = resp.StatusCode
		rate = responseRate(resp)
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var ghErr *github.ErrorResponse
	switch {
	case errors.As(err, &rateErr):
		statusCode = http.StatusForbidden
		rate = &rateErr.Rate
	case errors.As(err, &abuseErr):
		statusCode = http.StatusForbidden
	case errors.As(err, &ghErr) && ghErr.Response != nil:
		statusCode = ghErr.Response.StatusCode
	}

	if statusCode != 0 {
		wrapped := gh.WrapHTTPError(err, statusCode, message)
		if statusCode == http.StatusForbidden {
			wrapped = gh.WithRateContext(wrapped, convertRate(rate))
		}
		return wrapped
	}

	// Fallback to network error for unknown errors
	return errors.Wrap(err, errors.CodeNetwork, message)
}

func responseRate(resp *github.Response) *github.Rate {
	if resp == nil || resp.Rate.Limit == 0 {
		return nil
	}
	return &resp.Rate
}

func convertRate(rate *github.Rate) *gh.RateLimit {
	if rate == nil {
		return nil
	}
	return &gh.RateLimit{
		Limit:     rate.Limit,
		Remaining: rate.Remaining,
		Used:      rate.Limit - rate.Remaining,
		Reset:     rate.Reset.Time,
	}
}

var _ gh.Provider = (*SDKProvider)(nil)
