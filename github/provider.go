package github

import "context"

//go:generate go run github.com/matryer/moq@latest -out mocks/provider.go -pkg mocks . Provider

// Provider defines the interface for querying the popularity API.
// Implementations include SDKProvider (using go-github) and CLIProvider
// (using gh CLI).
//
// Each method issues exactly one request and never retries. All methods accept
// a context.Context for cancellation and timeout control.
type Provider interface {
	// GetRepositoryStars retrieves the star count of a repository.
	// Returns an errors.CodeRateLimit error if the API throttled the request.
	// Returns an errors.CodeNotFound error if the repository doesn't exist.
	GetRepositoryStars(ctx context.Context, owner, repo string) (*RepositoryStars, error)

	// GetRateLimit retrieves the caller's current core API rate limit.
	// Querying the rate limit does not count against it.
	GetRateLimit(ctx context.Context) (*RateLimit, error)
}
