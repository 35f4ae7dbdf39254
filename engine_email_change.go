package signet

import (
	"context"
	"fmt"
)

// RequestEmailChange stores newEmail as pending on the user, issues an
// emailConfirmChange ticket, and mails it to the new address. The change
// takes effect only when the ticket is consumed; requesting again
// replaces the previous ticket.
func (e *Engine) RequestEmailChange(ctx context.Context, userID, newEmail, redirectTo string) error {
	if e == nil || e.tickets == nil || e.users == nil {
		return ErrEngineNotReady
	}
	if !e.config.Features.EmailChange {
		return ErrFeatureDisabled
	}
	if userID == "" || newEmail == "" {
		return ErrInvalidRequest
	}

	user, err := e.loadActiveUser(ctx, userID)
	if err != nil {
		return err
	}

	user.NewEmail = newEmail
	if err := e.users.Update(ctx, user); err != nil {
		return fmt.Errorf("%w: user update: %v", ErrDownstreamUnavailable, err)
	}

	ticket, err := e.IssueTicket(ctx, TicketEmailConfirmChange, user.ID, e.config.Ticket.EmailChangeTTL)
	if err != nil {
		return err
	}

	locals := map[string]string{
		"displayName": user.DisplayName,
		"ticket":      ticket,
		"redirectTo":  redirectTo,
		"locale":      user.Locale,
	}
	return e.sendEmail(ctx, "email-confirm-change", locals, newEmail)
}

// ConfirmEmailChange consumes the ticket and promotes the pending
// newEmail to the user's address. A second confirmation attempt with the
// same ticket fails: the consume already happened.
func (e *Engine) ConfirmEmailChange(ctx context.Context, ticket string) (*User, error) {
	if e == nil || e.tickets == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Features.EmailChange {
		return nil, ErrFeatureDisabled
	}
	if kind, ok := ParseTicketKind(ticket); !ok || kind != TicketEmailConfirmChange {
		return nil, ErrTicketNotFound
	}

	user, err := e.ConsumeTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if user.NewEmail == "" {
		return nil, ErrInvalidRequest
	}

	user.Email = user.NewEmail
	user.NewEmail = ""
	if err := e.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: user update: %v", ErrDownstreamUnavailable, err)
	}
	return user, nil
}
