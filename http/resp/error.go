package resp

import (
	"errors"
	"net/http"

	"github.com/xy-planning-network/retention"
)

var ErrDone = errors.New("request ctx done")

// StatusFor maps err onto the HTTP status code a client receives for it.
//
// ErrNotSelfInitiated and ErrNotSuspended wrap ErrInvalidState, so they are checked first.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, retention.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, retention.ErrNotSelfInitiated),
		errors.Is(err, retention.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, retention.ErrNotSuspended):
		return http.StatusConflict
	case errors.Is(err, retention.ErrInvalidState),
		errors.Is(err, retention.ErrNotValid),
		errors.Is(err, retention.ErrMissingData):
		return http.StatusBadRequest
	case errors.Is(err, retention.ErrConflict),
		errors.Is(err, retention.ErrHoldActive),
		errors.Is(err, retention.ErrExists):
		return http.StatusConflict
	case errors.Is(err, retention.ErrDependency):
		return http.StatusBadGateway
	case errors.Is(err, ErrDone):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
