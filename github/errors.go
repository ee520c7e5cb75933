package github

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
)

// Popularity API error codes (use existing codes from errors library).
// These are convenience aliases for readability in the API context.
const (
	// ErrCodeNotFound indicates the repository was not found.
	ErrCodeNotFound = errors.CodeNotFound

	// ErrCodeAuthenticationFailed indicates the token was rejected.
	ErrCodeAuthenticationFailed = errors.CodeUnauthorized

	// ErrCodeThrottled indicates the API refused the request because the
	// caller's quota is exhausted.
	ErrCodeThrottled = errors.CodeRateLimit

	// ErrCodeUnavailable indicates the API asked the caller to back off.
	ErrCodeUnavailable = errors.CodeUnavailable

	// ErrCodeNetwork indicates network-related errors.
	ErrCodeNetwork = errors.CodeNetwork

	// ErrCodeInternal indicates internal errors.
	ErrCodeInternal = errors.CodeInternal
)

// WrapHTTPError wraps an error based on the HTTP status code returned by the
// API. A 403 is always classified as throttling. The status code is attached
// as "status_code" context.
func WrapHTTPError(err error, statusCode int, message string) error {
	if err == nil {
		return nil
	}

	var code errors.ErrorCode
	switch statusCode {
	case http.StatusForbidden:
		code = errors.CodeRateLimit
	case http.StatusNotFound:
		code = errors.CodeNotFound
	case http.StatusUnauthorized:
		code = errors.CodeUnauthorized
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		code = errors.CodeInvalidInput
	case http.StatusTooManyRequests:
		code = errors.CodeUnavailable
	default:
		if statusCode >= 500 {
			code = errors.CodeNetwork
		} else {
			code = errors.CodeInternal
		}
	}

	return errors.WithContext(errors.Wrap(err, code, message), "status_code", statusCode)
}

// WithRateContext attaches rate-limit diagnostics to err.
// It returns err unchanged if rate is nil.
func WithRateContext(err error, rate *RateLimit) error {
	if err == nil || rate == nil {
		return err
	}
	wrapped := errors.WithContext(err, "rate_remaining", rate.Remaining)
	if !rate.Reset.IsZero() {
		wrapped = errors.WithContext(wrapped, "rate_reset", rate.Reset.UTC().Format(time.RFC3339))
	}
	return wrapped
}

// IsThrottled reports whether err, or any error it wraps, signals that the
// API throttled the caller.
func IsThrottled(err error) bool {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if pe, ok := e.(errors.PlatformError); ok && pe.Code() == errors.CodeRateLimit {
			return true
		}
	}
	return false
}

// StatusCode returns the HTTP status attached to err by WrapHTTPError, or 0.
func StatusCode(err error) int {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		pe, ok := e.(errors.PlatformError)
		if !ok {
			continue
		}
		if status, ok := pe.Context()["status_code"].(int); ok {
			return status
		}
	}
	return 0
}

// WrapCLIError wraps errors from gh CLI execution that carry no HTTP status,
// classifying them from the stderr text.
func WrapCLIError(err error, stderr string) error {
	if err == nil {
		return nil
	}

	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = "gh CLI command failed"
	}

	var code errors.ErrorCode

	// Check for common error patterns in stderr
	switch {
	case contains(stderr, "rate limit"):
		code = errors.CodeRateLimit
	case contains(stderr, "not found", "could not resolve"):
		code = errors.CodeNotFound
	case contains(stderr, "authentication", "not logged in", "unauthorized"):
		code = errors.CodeUnauthorized
	case contains(stderr, "network", "connection", "timeout"):
		code = errors.CodeNetwork
	default:
		code = errors.CodeExecutionFailed
	}

	return errors.Wrap(err, code, msg)
}

// contains checks if any of the patterns exist in the text (case-insensitive).
func contains(text string, patterns ...string) bool {
	lowText := strings.ToLower(text)
	for _, pattern := range patterns {
		if strings.Contains(lowText, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
