package signet

import (
	"context"
	"fmt"

	"github.com/signet-auth/signet/jwt"
	"github.com/signet-auth/signet/password"
)

// Engine is the authentication core. Build one through [Builder]; after
// that every method is safe for concurrent use. The engine holds no
// mutable state of its own; correctness under concurrency rests on the
// store's conditional consume.
type Engine struct {
	config Config

	tickets      *ticketStore
	otps         *otpStore
	refreshStore *refreshStore

	users            UserRepository
	breachChecker    BreachChecker
	emailSender      MessageSender
	smsSender        MessageSender
	providerResolver ProviderResolver

	totp         *totpManager
	jwtManager   *jwt.Manager
	passwordHash *password.Hasher
}

// Configured returns a copy of the engine's configuration.
func (e *Engine) Configured() Config {
	return e.config
}

// HashPassword runs the password policy and, on success, returns the
// argon2id hash to store. Registration-time helper: sign-in never re-runs
// the policy against stored credentials.
func (e *Engine) HashPassword(ctx context.Context, plain string) (string, error) {
	if e == nil || e.passwordHash == nil {
		return "", ErrEngineNotReady
	}
	if err := e.CheckPasswordPolicy(ctx, plain); err != nil {
		return "", err
	}
	return e.passwordHash.Hash(plain)
}

// sendEmail delivers a templated email under the configured deadline.
func (e *Engine) sendEmail(ctx context.Context, template string, locals map[string]string, destination string) error {
	if e.emailSender == nil {
		return ErrEngineNotReady
	}
	sendCtx, cancel := context.WithTimeout(ctx, e.config.Downstream.DeliveryTimeout)
	defer cancel()

	if err := e.emailSender.Send(sendCtx, template, locals, destination); err != nil {
		return fmt.Errorf("%w: email delivery: %v", ErrDownstreamUnavailable, err)
	}
	return nil
}

// sendSms delivers a templated SMS under the configured deadline.
func (e *Engine) sendSms(ctx context.Context, template string, locals map[string]string, destination string) error {
	if e.smsSender == nil {
		return ErrEngineNotReady
	}
	sendCtx, cancel := context.WithTimeout(ctx, e.config.Downstream.DeliveryTimeout)
	defer cancel()

	if err := e.smsSender.Send(sendCtx, template, locals, destination); err != nil {
		return fmt.Errorf("%w: sms delivery: %v", ErrDownstreamUnavailable, err)
	}
	return nil
}
