//nolint:contextcheck // Context is properly passed via CommandWrapper.WithContext() but linter cannot verify
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/exec"

	github "github.com/jmgilman/go/catalog/github"
)

// httpStatusPattern matches the status suffix gh prints for failed API calls,
// e.g. "gh: Not Found (HTTP 404)".
var httpStatusPattern = regexp.MustCompile(`\(HTTP (\d{3})\)`)

// Option configures the CLI provider.
type Option func(*CLIProvider) error

// CLIProvider implements github.Provider using the gh CLI.
type CLIProvider struct {
	wrapper *exec.CommandWrapper
}

// NewCLIProvider creates a provider using the gh CLI.
// Inherits authentication from gh CLI configuration.
//
// Example:
//
//	provider, err := cli.NewCLIProvider()
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewCLIProvider(opts ...Option) (*CLIProvider, error) {
	// Default executor
	executor := exec.New(exec.WithInheritEnv())

	provider := &CLIProvider{
		wrapper: exec.NewWrapper(executor, "gh"),
	}

	// Apply options (can override the wrapper)
	for _, opt := range opts {
		if err := opt(provider); err != nil {
			return nil, err
		}
	}

	// Verify gh is installed and authenticated
	result, err := provider.wrapper.Run("auth", "status")
	if err != nil {
		return nil, wrapAuthError(err, result)
	}

	return provider, nil
}

// GetRepositoryStars retrieves the star count of a repository.
func (c *CLIProvider) GetRepositoryStars(ctx context.Context, owner, repo string) (*github.RepositoryStars, error) {
	result, err := c.wrapper.Clone().WithContext(ctx).Run("api", fmt.Sprintf("repos/%s/%s", owner, repo))
	if err != nil {
		return nil, c.wrapCLIError(err, result, "failed to get repository")
	}

	var apiResp struct {
		Name            string `json:"name"`
		FullName        string `json:"full_name"`
		StargazersCount int    `json:"stargazers_count"`
		Owner           struct {
			Login string `json:"login"`
		} `json:"owner"`
	}

	if err := c.parseJSON(result, &apiResp); err != nil {
		return nil, err
	}

	stars := &github.RepositoryStars{
		Owner:    apiResp.Owner.Login,
		Name:     apiResp.Name,
		FullName: apiResp.FullName,
		Stars:    apiResp.StargazersCount,
	}
	if stars.Owner == "" {
		stars.Owner = owner
	}
	if stars.Name == "" {
		stars.Name = repo
	}

	return stars, nil
}

// GetRateLimit retrieves the caller's current core API rate limit.
func (c *CLIProvider) GetRateLimit(ctx context.Context) (*github.RateLimit, error) {
	result, err := c.wrapper.Clone().WithContext(ctx).Run("api", "rate_limit")
	if err != nil {
		return nil, c.wrapCLIError(err, result, "failed to get rate limit")
	}

	var apiResp struct {
		Resources struct {
			Core struct {
				Limit     int   `json:"limit"`
				Remaining int   `json:"remaining"`
				Used      int   `json:"used"`
				Reset     int64 `json:"reset"`
			} `json:"core"`
		} `json:"resources"`
	}

	if err := c.parseJSON(result, &apiResp); err != nil {
		return nil, err
	}

	core := apiResp.Resources.Core
	return &github.RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Used:      core.Used,
		Reset:     time.Unix(core.Reset, 0).UTC(),
	}, nil
}

// parseJSON unmarshals JSON from result stdout into the target.
func (c *CLIProvider) parseJSON(result *exec.Result, target interface{}) error {
	if err := json.Unmarshal([]byte(result.Stdout), target); err != nil {
		wrappedErr := errors.Wrap(err, errors.CodeInvalidInput, "failed to parse JSON response")
		wrappedErr = errors.WithContext(wrappedErr, "stdout", result.Stdout)
		return wrappedErr
	}
	return nil
}

// wrapCLIError wraps CLI execution errors with appropriate error types.
// The HTTP status gh reports on stderr takes precedence over text matching.
func (c *CLIProvider) wrapCLIError(err error, result *exec.Result, message string) error {
	if err == nil {
		return nil
	}

	if result == nil {
		return errors.Wrap(err, errors.CodeExecutionFailed, message)
	}

	var wrappedErr error
	if status := parseHTTPStatus(result.Stderr); status != 0 {
		wrappedErr = github.WrapHTTPError(err, status, message)
	} else {
		classified := github.WrapCLIError(err, result.Stderr)
		wrappedErr = errors.Wrap(classified, errors.GetCode(classified), message)
	}

	// Include stderr in error details if available
	if result.Stderr != "" {
		wrappedErr = errors.WithContext(wrappedErr, "stderr", result.Stderr)
		wrappedErr = errors.WithContext(wrappedErr, "exit_code", result.ExitCode)
	}

	return wrappedErr
}

func parseHTTPStatus(stderr string) int {
	match := httpStatusPattern.FindStringSubmatch(stderr)
	if match == nil {
		return 0
	}
	status, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return status
}

// WithExecutor sets a custom executor for the CLI provider.
// This is primarily useful for testing with a mock executor.
func WithExecutor(executor exec.Executor) Option {
	return func(p *CLIProvider) error {
		if executor == nil {
			err := errors.New(errors.CodeInvalidInput, "executor cannot be nil")
			return errors.WithContext(err, "field", "executor")
		}
		p.wrapper = exec.NewWrapper(executor, "gh")
		return nil
	}
}

// wrapAuthError wraps authentication errors from gh CLI.
func wrapAuthError(err error, result *exec.Result) error {
	authErr := errors.Wrap(err, errors.CodeUnauthorized, "gh CLI not authenticated")
	authErr = errors.WithContext(authErr, "hint", "Run 'gh auth login' to authenticate")
	if result != nil && result.Stderr != "" {
		authErr = errors.WithContext(authErr, "stderr", result.Stderr)
	}
	return authErr
}

var _ github.Provider = (*CLIProvider)(nil)
