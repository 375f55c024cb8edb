package dto

import "net/http"

// Error codes surfaced by the API. Domain error codes map one-to-one;
// the rest are transport-level.
const (
	// ErrCodeNotFound is used when a resource does not exist for the caller
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeQuotaExceeded is used when the per-customer invoice quota is full
	ErrCodeQuotaExceeded = "QUOTA_EXCEEDED"
	// ErrCodeLockTimeout is used when the customer write lock could not be taken in time
	ErrCodeLockTimeout = "LOCK_TIMEOUT"
	// ErrCodeWriteConflict is used when a write lost against a concurrent one
	ErrCodeWriteConflict = "WRITE_CONFLICT"

	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeQuotaExceeded: http.StatusConflict,
	ErrCodeWriteConflict: http.StatusConflict,
	// A lock timeout is transient: the customer's lock was busy, retry later
	ErrCodeLockTimeout: http.StatusServiceUnavailable,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeInternal:     http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
