package catalog

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"

	"github.com/jmgilman/go/errors"
)

// Catalog-specific error codes. Codes shared with the errors library are
// exposed as aliases for readability.
const (
	// CodeCatalogUnavailable indicates the primary catalog feed could not be
	// fetched and no catalog could be served.
	CodeCatalogUnavailable errors.ErrorCode = "CATALOG_UNAVAILABLE"

	// CodeNoCatalog indicates an operation needs a previously fetched catalog.
	CodeNoCatalog errors.ErrorCode = "NO_CATALOG"

	// CodeStoreReadFailed indicates the persisted snapshot could not be read.
	CodeStoreReadFailed errors.ErrorCode = "STORE_READ_FAILED"

	// CodeStoreWriteFailed indicates the snapshot could not be persisted.
	CodeStoreWriteFailed errors.ErrorCode = "STORE_WRITE_FAILED"

	// CodeStoreCorrupt indicates the persisted snapshot could not be parsed.
	CodeStoreCorrupt errors.ErrorCode = "STORE_CORRUPT"

	// CodeHTTPStatus indicates a remote endpoint answered with a non-2xx status.
	CodeHTTPStatus errors.ErrorCode = "HTTP_STATUS"

	// CodeTimeout indicates a remote call exceeded its time limit.
	CodeTimeout = errors.CodeTimeout

	// CodeTransport indicates a remote call failed below the HTTP layer.
	CodeTransport = errors.CodeNetwork

	// CodeInternal indicates an unexpected internal failure.
	CodeInternal = errors.CodeInternal
)

// NewHTTPStatusError creates a fetch error for a non-2xx response.
func NewHTTPStatusError(url string, status int) error {
	err := errors.New(CodeHTTPStatus, fmt.Sprintf("unexpected HTTP status %d (%s)", status, http.StatusText(status)))
	err = errors.WithContext(err, "url", url)
	return errors.WithContext(err, "status_code", status)
}

// WrapTransportError classifies an error returned by an HTTP client into a
// timeout or transport fetch error. It returns nil if err is nil.
func WrapTransportError(err error, url string) error {
	if err == nil {
		return nil
	}

	code := CodeTransport
	message := "request failed"
	if isTimeout(err) {
		code = CodeTimeout
		message = "request timed out"
	}

	return errors.WithContext(errors.Wrap(err, code, message), "url", url)
}

// HTTPStatus returns the status code attached anywhere in err's chain, or 0.
func HTTPStatus(err error) int {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		platformErr, ok := e.(errors.PlatformError)
		if !ok {
			continue
		}
		if status, ok := platformErr.Context()["status_code"].(int); ok {
			return status
		}
	}
	return 0
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func newNoCatalogError() error {
	err := errors.New(CodeNoCatalog, "no catalog available; fetch the catalog first")
	return errors.WithContext(err, "hint", "call GetCatalog before refreshing stars")
}

func newCatalogUnavailableError(cause error) error {
	return errors.Wrap(cause, CodeCatalogUnavailable, "primary catalog feed unavailable")
}

func newPersistError(cause error) error {
	return errors.Wrap(cause, CodeInternal, "failed to persist catalog snapshot")
}
