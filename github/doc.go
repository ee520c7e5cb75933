// Package github provides access to the repository popularity API.
//
// Two pluggable backends implement the Provider interface: one using the
// official Go GitHub SDK (go-github) and another using the gh CLI tool. Both
// report star counts and the caller's current rate limit, and both classify
// failures the same way so the batch fetcher can react to throttling without
// knowing which backend is in use.
//
// # Provider Implementations
//
// ## SDK Provider
//
// Uses google/go-github against the REST API. Works anonymously or with a
// personal access token. The base URL can be overridden for testing or for
// GitHub Enterprise installations.
//
// ## CLI Provider
//
// Uses `gh api` and inherits authentication from the gh CLI configuration.
//
// # Error Handling
//
// Provider errors are github.com/jmgilman/go/errors PlatformErrors mapped
// from the HTTP status of the failed request:
//
//   - 403: errors.CodeRateLimit, the throttle signal (see IsThrottled)
//   - 401: errors.CodeUnauthorized
//   - 404: errors.CodeNotFound
//   - 429: errors.CodeUnavailable
//   - 5xx: errors.CodeNetwork
//
// Every mapped error carries a "status_code" context field. Throttling errors
// also carry "rate_remaining" and "rate_reset" when the response reported
// them.
//
// # Usage
//
//	provider, err := sdk.NewSDKProvider(sdk.WithToken(token))
//	if err != nil {
//	    return err
//	}
//
//	stars, err := provider.GetRepositoryStars(ctx, "owner", "repo")
//	if github.IsThrottled(err) {
//	    // stop issuing requests until the limit resets
//	}
package github
