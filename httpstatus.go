package signet

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an engine error to the transport status a boundary
// layer should respond with: malformed input → 400, credential and
// ticket failures → 401, disabled features → 404, downstream failures →
// 503. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordCompromised):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrUserDisabled),
		errors.Is(err, ErrTicketNotFound),
		errors.Is(err, ErrTicketExpired),
		errors.Is(err, ErrTicketConsumed),
		errors.Is(err, ErrOTPInvalid),
		errors.Is(err, ErrTOTPInvalid),
		errors.Is(err, ErrTOTPReplay),
		errors.Is(err, ErrTOTPNotConfigured),
		errors.Is(err, ErrRefreshInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, ErrFeatureDisabled):
		return http.StatusNotFound
	case errors.Is(err, ErrDownstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
