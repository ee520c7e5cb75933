package api

import (
	"encoding/json"
	"net/http"

	"github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/catalog"
)

type errorBody struct {
	Success bool                  `json:"success"`
	Error   string                `json:"error"`
	Details *errors.ErrorResponse `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	details := errors.ToJSON(err)
	respondJSON(w, statusFor(err), errorBody{
		Success: false,
		Error:   details.Message,
		Details: details,
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, catalog.CodeNoCatalog:
		return http.StatusBadRequest
	case errors.CodeUnauthorized:
		return http.StatusUnauthorized
	case errors.CodeRateLimit:
		return http.StatusTooManyRequests
	case catalog.CodeCatalogUnavailable, errors.CodeNetwork:
		if isTimeout(err) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.CodeTimeout:
		return http.StatusGatewayTimeout
	case errors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// isTimeout reports whether a timeout error is anywhere in err's chain.
func isTimeout(err error) bool {
	var platformErr errors.PlatformError
	for e := err; e != nil; {
		if !errors.As(e, &platformErr) {
			return false
		}
		if platformErr.Code() == errors.CodeTimeout {
			return true
		}
		e = platformErr.Unwrap()
	}
	return false
}
