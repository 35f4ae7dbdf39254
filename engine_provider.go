package signet

import (
	"context"
	"errors"
	"fmt"
)

// signInProvider delegates identity resolution to the external provider
// collaborator, then finds or creates the matching local account.
func (e *Engine) signInProvider(ctx context.Context, req ProviderRequest) (*SignInResult, error) {
	if !e.config.Features.Provider {
		return nil, ErrFeatureDisabled
	}
	if e.providerResolver == nil {
		return nil, ErrEngineNotReady
	}
	if req.Provider == "" || req.Code == "" {
		return nil, ErrInvalidRequest
	}

	resolveCtx, cancel := context.WithTimeout(ctx, e.config.Downstream.ProviderTimeout)
	defer cancel()

	identity, err := e.providerResolver.ResolveIdentity(resolveCtx, req.Provider, req.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: provider: %v", ErrDownstreamUnavailable, err)
	}
	if identity == nil || identity.Email == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := e.users.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
	case errors.Is(err, ErrUserNotFound):
		user, err = e.users.Create(ctx, &User{
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: user create: %v", ErrDownstreamUnavailable, err)
		}
	default:
		return nil, fmt.Errorf("%w: user lookup: %v", ErrDownstreamUnavailable, err)
	}
	if user.Disabled {
		return nil, ErrUserDisabled
	}

	session, err := e.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Session: session}, nil
}
