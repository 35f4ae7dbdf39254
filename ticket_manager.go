package signet

import (
	"context"
	"time"
)

// IssueTicket generates a single-use "<kind>:<uuid>" ticket for the user
// and persists it with the given lifetime, replacing any prior live
// ticket of the same kind for that user. Issuing has no side effect
// beyond storage; delivery is the caller's concern.
func (e *Engine) IssueTicket(ctx context.Context, kind TicketKind, userID string, ttl time.Duration) (string, error) {
	if e == nil || e.tickets == nil {
		return "", ErrEngineNotReady
	}
	if !kind.valid() || userID == "" || ttl <= 0 {
		return "", ErrInvalidRequest
	}

	value := newTicketValue(kind)
	record := &ticketRecord{
		Kind:      kind,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	if err := e.tickets.Save(ctx, value, record, ttl); err != nil {
		return "", err
	}
	return value, nil
}

// VerifyTicket resolves a ticket value to its owning user without
// consuming it. Unknown values fail with [ErrTicketNotFound], expired
// ones with [ErrTicketExpired].
func (e *Engine) VerifyTicket(ctx context.Context, value string) (*User, error) {
	if e == nil || e.tickets == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.tickets.Get(ctx, value)
	if err != nil {
		return nil, err
	}
	return e.loadActiveUser(ctx, record.UserID)
}

// ConsumeTicket atomically verifies and clears a ticket, returning its
// owner. Of two concurrent consumers exactly one receives the user; the
// other fails with [ErrTicketNotFound] or [ErrTicketConsumed].
func (e *Engine) ConsumeTicket(ctx context.Context, value string) (*User, error) {
	if e == nil || e.tickets == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.tickets.Consume(ctx, value)
	if err != nil {
		return nil, err
	}
	return e.loadActiveUser(ctx, record.UserID)
}
