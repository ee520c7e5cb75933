package catalog

import (
	"log/slog"
	"time"

	"github.com/jmgilman/go/errors"
)

// Option configures a Syncer.
type Option func(*Syncer) error

// WithTTL sets how long a persisted catalog is served before it is
// refreshed. Defaults to DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Syncer) error {
		if ttl <= 0 {
			err := errors.New(errors.CodeInvalidInput, "ttl must be positive")
			return errors.WithContext(err, "field", "ttl")
		}
		s.ttl = ttl
		return nil
	}
}

// WithInstalledSet sets the host's installed-extension set used to compute
// Entry.IsInstalled. Without it no entry is reported as installed.
func WithInstalledSet(installed InstalledSet) Option {
	return func(s *Syncer) error {
		s.installed = installed
		return nil
	}
}

// WithRefreshTimeout bounds the total duration of the star fetch in
// RefreshStars. Zero means no bound beyond the caller's context.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(s *Syncer) error {
		if timeout < 0 {
			err := errors.New(errors.CodeInvalidInput, "refresh timeout cannot be negative")
			return errors.WithContext(err, "field", "refresh_timeout")
		}
		s.refreshTimeout = timeout
		return nil
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithClock overrides the time source used for freshness checks and
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) error {
		if now == nil {
			err := errors.New(errors.CodeInvalidInput, "clock cannot be nil")
			return errors.WithContext(err, "field", "clock")
		}
		s.now = now
		return nil
	}
}
