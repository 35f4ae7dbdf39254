package signet

import "context"

// signInMfaTotp completes a pending second factor. The challenge ticket
// is consumed before the TOTP code is checked, so a wrong code burns the
// ticket: one attempt per challenge, no hammering a live ticket.
func (e *Engine) signInMfaTotp(ctx context.Context, req MfaTotpRequest) (*SignInResult, error) {
	if !e.config.Features.Mfa {
		return nil, ErrFeatureDisabled
	}
	if req.Ticket == "" || req.OtpCode == "" {
		return nil, ErrInvalidRequest
	}
	if kind, ok := ParseTicketKind(req.Ticket); !ok || kind != TicketMfaTotp {
		return nil, ErrTicketNotFound
	}

	user, err := e.ConsumeTicket(ctx, req.Ticket)
	if err != nil {
		return nil, err
	}

	if err := e.verifyTotpForUser(ctx, user, req.OtpCode); err != nil {
		return nil, err
	}

	session, err := e.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Session: session}, nil
}

// GenerateMfaSetup returns a fresh TOTP secret and its enrollment URI
// for the user. The caller persists the secret once the user confirms a
// first valid code.
func (e *Engine) GenerateMfaSetup(account string) (secret []byte, secretBase32, provisionURI string, err error) {
	if e == nil || e.totp == nil {
		return nil, "", "", ErrEngineNotReady
	}
	secret, secretBase32, err = e.totp.GenerateSecret()
	if err != nil {
		return nil, "", "", err
	}
	return secret, secretBase32, e.totp.ProvisionURI(secretBase32, account), nil
}
