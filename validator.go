package signet

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CheckPasswordPolicy enforces the credential policy for a candidate
// password. Length is checked first; a password below the minimum is
// rejected as [ErrPasswordTooShort] without ever contacting the
// breach-check collaborator. When breach checking is enabled, a password
// reported as leaked fails with [ErrPasswordCompromised].
//
// A breach-check failure (timeout or error) follows
// Config.Password.BreachFailOpen: the default false rejects the password
// with [ErrDownstreamUnavailable] rather than silently accepting a
// password that could not be vetted.
func (e *Engine) CheckPasswordPolicy(ctx context.Context, password string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if len(password) < e.config.Password.MinLength {
		return fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, e.config.Password.MinLength)
	}
	if !e.config.Password.BreachCheckEnabled {
		return nil
	}
	if e.breachChecker == nil {
		return ErrEngineNotReady
	}

	checkCtx, cancel := context.WithTimeout(ctx, e.config.Downstream.BreachCheckTimeout)
	defer cancel()

	compromised, err := e.breachChecker.IsCompromised(checkCtx, password)
	if err != nil {
		if e.config.Password.BreachFailOpen {
			return nil
		}
		return fmt.Errorf("%w: breach check: %v", ErrDownstreamUnavailable, err)
	}
	if compromised {
		return ErrPasswordCompromised
	}
	return nil
}

// verifyTotpForUser checks the code against the user's MFA secret and
// rejects replays: a code for a time step at or below the last accepted
// one fails even though the code value is correct. The accepted counter
// is persisted through the repository before success is reported.
func (e *Engine) verifyTotpForUser(ctx context.Context, user *User, code string) error {
	if e.totp == nil {
		return ErrEngineNotReady
	}
	if !user.MfaEnabled || len(user.MfaSecret) == 0 {
		return ErrTOTPNotConfigured
	}

	ok, counter, err := e.totp.VerifyCode(user.MfaSecret, code, time.Now())
	if err != nil || !ok {
		return ErrTOTPInvalid
	}
	if counter <= user.MfaLastCounter {
		return ErrTOTPReplay
	}

	user.MfaLastCounter = counter
	if err := e.users.Update(ctx, user); err != nil {
		return fmt.Errorf("%w: totp counter update: %v", ErrDownstreamUnavailable, err)
	}
	return nil
}

// verifyPassword compares a candidate against the stored hash. A user
// without a password hash (anonymous, provider-only) never matches.
func (e *Engine) verifyPassword(user *User, password string) error {
	if e.passwordHash == nil {
		return ErrEngineNotReady
	}
	if user.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	ok, err := e.passwordHash.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	return nil
}

// loadActiveUser fetches a user and enforces the disabled gate shared by
// every pipeline.
func (e *Engine) loadActiveUser(ctx context.Context, id string) (*User, error) {
	user, err := e.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: user lookup: %v", ErrDownstreamUnavailable, err)
	}
	if user.Disabled {
		return nil, ErrUserDisabled
	}
	return user, nil
}
