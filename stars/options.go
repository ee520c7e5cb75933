package stars

import (
	"log/slog"
	"time"

	"github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/catalog"
)

// Profile controls how aggressively a BatchFetcher queries the popularity API.
type Profile struct {
	// BatchSize is the number of requests dispatched concurrently.
	BatchSize int
	// Delay is the pause between two consecutive batches.
	Delay time.Duration
}

var (
	// AuthenticatedProfile is used when an access token is configured.
	AuthenticatedProfile = Profile{BatchSize: 500, Delay: 50 * time.Millisecond}

	// AnonymousProfile is used without an access token.
	AnonymousProfile = Profile{BatchSize: 20, Delay: 500 * time.Millisecond}
)

// ProfileFor returns the default profile for an authenticated or anonymous
// caller.
func ProfileFor(authenticated bool) Profile {
	if authenticated {
		return AuthenticatedProfile
	}
	return AnonymousProfile
}

// Validate checks that the profile can drive a fetch run.
func (p Profile) Validate() error {
	if p.BatchSize <= 0 {
		err := errors.New(errors.CodeInvalidConfig, "batch size must be positive")
		return errors.WithContext(err, "batch_size", p.BatchSize)
	}
	if p.Delay < 0 {
		err := errors.New(errors.CodeInvalidConfig, "batch delay cannot be negative")
		return errors.WithContext(err, "delay", p.Delay.String())
	}
	return nil
}

// Option configures a BatchFetcher.
type Option func(*BatchFetcher) error

// WithProfile sets the batch size and inter-batch delay.
func WithProfile(profile Profile) Option {
	return func(f *BatchFetcher) error {
		if err := profile.Validate(); err != nil {
			return err
		}
		f.profile = profile
		return nil
	}
}

// WithCredentials selects AuthenticatedProfile when the provider yields a
// token and AnonymousProfile otherwise.
func WithCredentials(credentials catalog.CredentialProvider) Option {
	return func(f *BatchFetcher) error {
		if credentials == nil {
			f.profile = AnonymousProfile
			return nil
		}
		_, ok := credentials.GetToken()
		f.profile = ProfileFor(ok)
		return nil
	}
}

// WithRequestTimeout bounds every individual request. Defaults to
// DefaultRequestTimeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(f *BatchFetcher) error {
		if timeout <= 0 {
			err := errors.New(errors.CodeInvalidInput, "request timeout must be positive")
			return errors.WithContext(err, "field", "request_timeout")
		}
		f.requestTimeout = timeout
		return nil
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *BatchFetcher) error {
		if logger != nil {
			f.logger = logger
		}
		return nil
	}
}

// WithMetrics records fetch activity in m.
func WithMetrics(m *Metrics) Option {
	return func(f *BatchFetcher) error {
		f.metrics = m
		return nil
	}
}
