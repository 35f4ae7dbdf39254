package signet

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before
	// Build wired the required dependency.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidRequest is returned for malformed or missing request fields.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidCredentials is returned when a password, OTP, or TOTP code
	// does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when the repository has no matching user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserDisabled is returned for any sign-in attempt against a
	// disabled account. A disabled user never receives a session.
	ErrUserDisabled = errors.New("user disabled")
	// ErrFeatureDisabled is returned when the sign-in method is switched
	// off in Config.Features.
	ErrFeatureDisabled = errors.New("feature disabled")

	// ErrTicketNotFound is returned when no live ticket matches the value.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrTicketExpired is returned when the ticket exists but its expiry
	// has passed. The value alone is never sufficient.
	ErrTicketExpired = errors.New("ticket expired")
	// ErrTicketConsumed is returned when a concurrent caller won the
	// consume race for the same ticket.
	ErrTicketConsumed = errors.New("ticket already consumed")

	// ErrOTPInvalid is returned when the submitted SMS code does not match
	// the stored one.
	ErrOTPInvalid = errors.New("invalid otp code")
	// ErrTOTPInvalid is returned when no code in the accepted time-step
	// window matches.
	ErrTOTPInvalid = errors.New("invalid totp code")
	// ErrTOTPReplay is returned when a TOTP code is resubmitted for a
	// time step that was already accepted.
	ErrTOTPReplay = errors.New("totp code replayed")
	// ErrTOTPNotConfigured is returned when the user has no MFA secret.
	ErrTOTPNotConfigured = errors.New("totp not configured")

	// ErrPasswordTooShort is returned by password policy checks before any
	// breach lookup runs.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordCompromised is returned when the breach-check collaborator
	// reports the password as leaked.
	ErrPasswordCompromised = errors.New("password appears in breach corpus")

	// ErrRefreshInvalid is returned for an unknown, expired, or already
	// rotated refresh token.
	ErrRefreshInvalid = errors.New("invalid refresh token")

	// ErrDownstreamUnavailable wraps failures of external collaborators:
	// the breach-check service, email/SMS delivery, the identity provider,
	// or the store backend itself.
	ErrDownstreamUnavailable = errors.New("downstream unavailable")
)
