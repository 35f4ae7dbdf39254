package signet

import (
	"context"
	"errors"
	"time"

	"github.com/signet-auth/signet/internal"
)

// issueSession mints the access/refresh pair for an already-authenticated
// user. The disabled check is repeated here even though every pipeline
// checks it earlier: no path may hand a session to a disabled account.
func (e *Engine) issueSession(ctx context.Context, user *User) (*SessionPayload, error) {
	if e.jwtManager == nil || e.refreshStore == nil {
		return nil, ErrEngineNotReady
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Disabled {
		return nil, ErrUserDisabled
	}

	access, accessExpiresAt, err := e.jwtManager.CreateAccess(user.ID, user.Anonymous)
	if err != nil {
		return nil, err
	}

	id, err := internal.NewRefreshID()
	if err != nil {
		return nil, err
	}
	secret, err := internal.NewRefreshSecret()
	if err != nil {
		return nil, err
	}

	record := &refreshRecord{
		UserID:     user.ID,
		SecretHash: internal.HashSecret(secret[:]),
		ExpiresAt:  time.Now().Add(e.config.Session.RefreshTTL).Unix(),
	}
	if err := e.refreshStore.Save(ctx, id, record, e.config.Session.RefreshTTL); err != nil {
		return nil, err
	}

	snapshot := *user
	snapshot.PasswordHash = ""
	snapshot.MfaSecret = nil

	return &SessionPayload{
		AccessToken:          access,
		AccessTokenExpiresAt: accessExpiresAt,
		RefreshToken:         internal.EncodeRefreshToken(id, secret),
		User:                 &snapshot,
	}, nil
}

// RefreshSession rotates a refresh token: the old token is atomically
// consumed and a new session pair is issued. A token already rotated or
// revoked fails with [ErrRefreshInvalid].
func (e *Engine) RefreshSession(ctx context.Context, refreshToken string) (*SessionPayload, error) {
	if e == nil || e.refreshStore == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	id, secret, err := internal.DecodeRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	record, err := e.refreshStore.Consume(ctx, id, internal.HashSecret(secret[:]))
	if err != nil {
		return nil, err
	}

	user, err := e.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	return e.issueSession(ctx, user)
}

// RevokeSession invalidates a refresh token. Revoking an unknown or
// already-revoked token succeeds: the end state is identical.
func (e *Engine) RevokeSession(ctx context.Context, refreshToken string) error {
	if e == nil || e.refreshStore == nil {
		return ErrEngineNotReady
	}

	id, _, err := internal.DecodeRefreshToken(refreshToken)
	if err != nil {
		// Not a token we could ever have issued; nothing to revoke.
		return nil
	}
	return e.refreshStore.Delete(ctx, id)
}
