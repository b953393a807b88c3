package types

import (
	"errors"
	"net/http"
)

// Error kinds the API surfaces. Handlers wrap these with context via %w and
// map them back to HTTP status codes with ErrorStatus.
var (
	ErrUnauthenticated  = errors.New("login required")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("too many concurrent updates")
)

func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
