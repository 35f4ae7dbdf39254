package signet

import (
	"context"
	"fmt"
)

// signInAnonymous creates an ephemeral user record and signs it in
// directly. Gated on the anonymous feature flag only.
func (e *Engine) signInAnonymous(ctx context.Context, _ AnonymousRequest) (*SignInResult, error) {
	if !e.config.Features.Anonymous {
		return nil, ErrFeatureDisabled
	}

	user, err := e.users.Create(ctx, &User{
		DisplayName: "Anonymous User",
		Anonymous:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: user create: %v", ErrDownstreamUnavailable, err)
	}

	session, err := e.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Session: session}, nil
}
