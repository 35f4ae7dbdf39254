package signet

import (
	"context"
	"errors"
	"fmt"
)

// signInEmailPassword runs the first-factor password pipeline. The
// password policy is not re-run here; it applies at registration only.
// A user with MFA enabled gets a challenge ticket instead of a session.
func (e *Engine) signInEmailPassword(ctx context.Context, req EmailPasswordRequest) (*SignInResult, error) {
	if !e.config.Features.EmailPassword {
		return nil, ErrFeatureDisabled
	}
	if req.Email == "" || req.Password == "" {
		return nil, ErrInvalidRequest
	}

	user, err := e.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: user lookup: %v", ErrDownstreamUnavailable, err)
	}
	if user.Disabled {
		return nil, ErrUserDisabled
	}
	if err := e.verifyPassword(user, req.Password); err != nil {
		return nil, err
	}

	if user.MfaEnabled && e.config.Features.Mfa {
		ticket, err := e.IssueTicket(ctx, TicketMfaTotp, user.ID, e.config.Ticket.MfaChallengeTTL)
		if err != nil {
			return nil, err
		}
		return &SignInResult{MFA: &MFAChallenge{Ticket: ticket}}, nil
	}

	session, err := e.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Session: session}, nil
}
