package signet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signet-auth/signet/internal"
)

// signInPasswordlessEmail issues a passwordlessEmail ticket and hands it
// to the email collaborator. An unregistered address gets the same empty
// acknowledgement as a registered one, so the response never discloses
// whether an account exists.
func (e *Engine) signInPasswordlessEmail(ctx context.Context, req PasswordlessEmailRequest) (*SignInResult, error) {
	if !e.config.Features.PasswordlessEmail {
		return nil, ErrFeatureDisabled
	}
	if req.Email == "" {
		return nil, ErrInvalidRequest
	}

	user, err := e.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Uniform acknowledgement; nothing is sent.
			return &SignInResult{}, nil
		}
		return nil, fmt.Errorf("%w: user lookup: %v", ErrDownstreamUnavailable, err)
	}
	if user.Disabled {
		return nil, ErrUserDisabled
	}

	ticket, err := e.IssueTicket(ctx, TicketPasswordlessEmail, user.ID, e.config.Ticket.PasswordlessTTL)
	if err != nil {
		return nil, err
	}

	locals := map[string]string{
		"displayName": user.DisplayName,
		"ticket":      ticket,
		"redirectTo":  req.RedirectTo,
		"locale":      user.Locale,
	}
	if err := e.sendEmail(ctx, "signin-passwordless", locals, user.Email); err != nil {
		return nil, err
	}
	return &SignInResult{}, nil
}

// signInPasswordlessSms generates a short-lived OTP keyed by phone
// number and delivers it by SMS. Same uniform acknowledgement rule as
// the email variant.
func (e *Engine) signInPasswordlessSms(ctx context.Context, req PasswordlessSmsRequest) (*SignInResult, error) {
	if !e.config.Features.PasswordlessSms {
		return nil, ErrFeatureDisabled
	}
	if req.PhoneNumber == "" {
		return nil, ErrInvalidRequest
	}

	user, err := e.users.GetByPhoneNumber(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return &SignInResult{}, nil
		}
		return nil, fmt.Errorf("%w: user lookup: %v", ErrDownstreamUnavailable, err)
	}
	if user.Disabled {
		return nil, ErrUserDisabled
	}

	code, err := internal.NewOTP(e.config.Otp.Digits)
	if err != nil {
		return nil, err
	}

	record := &otpRecord{
		UserID:    user.ID,
		CodeHash:  internal.HashSecret([]byte(code)),
		ExpiresAt: time.Now().Add(e.config.Otp.TTL).Unix(),
	}
	if err := e.otps.Save(ctx, req.PhoneNumber, record, e.config.Otp.TTL); err != nil {
		return nil, err
	}

	locals := map[string]string{
		"code":   code,
		"locale": user.Locale,
	}
	if err := e.sendSms(ctx, "signin-passwordless-sms", locals, req.PhoneNumber); err != nil {
		return nil, err
	}
	return &SignInResult{}, nil
}

// SignInWithTicket redeems a passwordlessEmail ticket from a magic
// link: the ticket is consumed in one conditional store operation and a
// session is issued for its owner. A link can be followed once.
func (e *Engine) SignInWithTicket(ctx context.Context, ticket string) (*SignInResult, error) {
	if e == nil || e.tickets == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Features.PasswordlessEmail {
		return nil, ErrFeatureDisabled
	}
	if kind, ok := ParseTicketKind(ticket); !ok || kind != TicketPasswordlessEmail {
		return nil, ErrTicketNotFound
	}

	user, err := e.ConsumeTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}

	session, err := e.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Session: session}, nil
}

// signInOtp redeems the SMS code: constant-time match and single-use
// consumption happen in one conditional store operation, then a session
// is issued for the owner.
func (e *Engine) signInOtp(ctx context.Context, req OtpRequest) (*SignInResult, error) {
	if !e.config.Features.PasswordlessSms {
		return nil, ErrFeatureDisabled
	}
	if req.PhoneNumber == "" || req.Otp == "" {
		return nil, ErrInvalidRequest
	}

	record, err := e.otps.Consume(ctx, req.PhoneNumber, internal.HashSecret([]byte(req.Otp)))
	if err != nil {
		return nil, err
	}

	user, err := e.loadActiveUser(ctx, record.UserID)
	if err != nil {
		return nil, err
	}

	session, err := e.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Session: session}, nil
}
