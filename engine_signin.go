package signet

import "context"

// SignInRequest is the closed union of sign-in methods. Each variant
// carries only the credentials its pipeline needs; dispatch is an
// exhaustive type switch in [Engine.SignIn].
type SignInRequest interface {
	signInRequest()
}

// EmailPasswordRequest authenticates with a stored password hash.
type EmailPasswordRequest struct {
	Email    string
	Password string
}

// AnonymousRequest creates an ephemeral account and signs it in.
type AnonymousRequest struct{}

// PasswordlessEmailRequest asks for a magic-link email. The response is
// a bare acknowledgement whether or not the address is registered.
type PasswordlessEmailRequest struct {
	Email      string
	RedirectTo string
}

// PasswordlessSmsRequest asks for a one-time code by SMS.
type PasswordlessSmsRequest struct {
	PhoneNumber string
}

// OtpRequest submits the SMS code received for a PasswordlessSmsRequest.
type OtpRequest struct {
	PhoneNumber string
	Otp         string
}

// ProviderRequest signs in through an external identity provider; the
// redirect dance already happened and Code is its outcome.
type ProviderRequest struct {
	Provider string
	Code     string
}

// MfaTotpRequest completes a pending MFA challenge with a TOTP code.
type MfaTotpRequest struct {
	Ticket  string
	OtpCode string
}

func (EmailPasswordRequest) signInRequest()     {}
func (AnonymousRequest) signInRequest()         {}
func (PasswordlessEmailRequest) signInRequest() {}
func (PasswordlessSmsRequest) signInRequest()   {}
func (OtpRequest) signInRequest()               {}
func (ProviderRequest) signInRequest()          {}
func (MfaTotpRequest) signInRequest()           {}

// SignIn routes the request through its method pipeline. On full
// authentication the result carries a session; on a pending second
// factor it carries an MFA challenge ticket instead; for passwordless
// requests both are nil and the acknowledgement is the nil error. Any
// pipeline failure returns a typed error and persists no partial state.
func (e *Engine) SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	switch r := req.(type) {
	case EmailPasswordRequest:
		return e.signInEmailPassword(ctx, r)
	case AnonymousRequest:
		return e.signInAnonymous(ctx, r)
	case PasswordlessEmailRequest:
		return e.signInPasswordlessEmail(ctx, r)
	case PasswordlessSmsRequest:
		return e.signInPasswordlessSms(ctx, r)
	case OtpRequest:
		return e.signInOtp(ctx, r)
	case ProviderRequest:
		return e.signInProvider(ctx, r)
	case MfaTotpRequest:
		return e.signInMfaTotp(ctx, r)
	case nil:
		return nil, ErrInvalidRequest
	default:
		return nil, ErrInvalidRequest
	}
}
