package signet

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTicketIssueAndConsumeOnce(t *testing.T) {
	fixture, done := newTestEngine(t, testConfig())
	defer done()
	engine := fixture.engine

	fixture.repo.put(&User{ID: "u1", Email: "alice@example.com"})

	ticket, err := engine.IssueTicket(context.Background(), TicketPasswordlessEmail, "u1", time.Hour)
	if err != nil {
		t.Fatalf("IssueTicket failed: %v", err)
	}
	if !strings.HasPrefix(ticket, "passwordlessEmail:") {
		t.Fatalf("ticket %q lacks kind prefix", ticket)
	}

	user, err := engine.ConsumeTicket(context.Background(), ticket)
	if err != nil {
		t.Fatalf("ConsumeTicket failed: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("consumed owner = %q, want u1", user.ID)
	}

	if _, err := engine.ConsumeTicket(context.Background(), ticket); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("second consume error = %v, want ErrTicketNotFound", err)
	}
}

func TestTicketVerifyDoesNotConsume(t *testing.T) {
	fixture, done := newTestEngine(t, testConfig())
	defer done()
	engine := fixture.engine

	fixture.repo.put(&User{ID: "u1"})

	ticket, err := engine.IssueTicket(context.Background(), TicketEmailConfirmChange, "u1", time.Hour)
	if err != nil {
		t.Fatalf("IssueTicket failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := engine.VerifyTicket(context.Background(), ticket); err != nil {
			t.Fatalf("VerifyTicket attempt %d failed: %v", i, err)
		}
	}
	if _, err := engine.ConsumeTicket(context.Background(), ticket); err != nil {
		t.Fatalf("ConsumeTicket after verifies failed: %v", err)
	}
}

func TestTicketExpiryIsReadTimeCheck(t *testing.T) {
	fixture, done := newTestEngine(t, testConfig())
	defer done()
	engine := fixture.engine

	fixture.repo.put(&User{ID: "u1"})

	// Record already past expiry but still present in storage: equality
	// of value alone must not be sufficient.
	value := newTicketValue(TicketPasswordlessEmail)
	record := &ticketRecord{
		Kind:      TicketPasswordlessEmail,
		UserID:    "u1",
		ExpiresAt: time.Now().Add(-time.Second).Unix(),
	}
	if err := engine.tickets.Save(context.Background(), value, record, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := engine.VerifyTicket(context.Background(), value); !errors.Is(err, ErrTicketExpired) {
		t.Fatalf("VerifyTicket error = %v, want ErrTicketExpired", err)
	}
	// The expired read cleared the record.
	if _, err := engine.ConsumeTicket(context.Background(), value); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("ConsumeTicket error = %v, want ErrTicketNotFound", err)
	}
}

func TestTicketSameKindReplacesPrior(t *testing.T) {
	fixture, done := newTestEngine(t, testConfig())
	defer done()
	engine := fixture.engine

	fixture.repo.put(&User{ID: "u1"})

	first, err := engine.IssueTicket(context.Background(), TicketMfaTotp, "u1", time.Hour)
	if err != nil {
		t.Fatalf("IssueTicket failed: %v", err)
	}
	second, err := engine.IssueTicket(context.Background(), TicketMfaTotp, "u1", time.Hour)
	if err != nil {
		t.Fatalf("IssueTicket failed: %v", err)
	}

	if _, err := engine.VerifyTicket(context.Background(), first); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("prior ticket error = %v, want ErrTicketNotFound", err)
	}
	if _, err := engine.VerifyTicket(context.Background(), second); err != nil {
		t.Fatalf("replacement ticket failed: %v", err)
	}
}

func TestTicketDifferentKindsCoexist(t *testing.T) {
	fixture, done := newTestEngine(t, testConfig())
	defer done()
	engine := fixture.engine

	fixture.repo.put(&User{ID: "u1"})

	change, err := engine.IssueTicket(context.Background(), TicketEmailConfirmChange, "u1", time.Hour)
	if err != nil {
		t.Fatalf("IssueTicket failed: %v", err)
	}
	passwordless, err := engine.IssueTicket(context.Background(), TicketPasswordlessEmail, "u1", time.Hour)
	if err != nil {
		t.Fatalf("IssueTicket failed: %v", err)
	}

	if _, err := engine.VerifyTicket(context.Background(), change); err != nil {
		t.Fatalf("emailConfirmChange ticket failed: %v", err)
	}
	if _, err := engine.VerifyTicket(context.Background(), passwordless); err != nil {
		t.Fatalf("passwordlessEmail ticket failed: %v", err)
	}
}

func TestTicketConcurrentConsumeSingleWinner(t *testing.T) {
	fixture, done := newTestEngine(t, testConfig())
	defer done()
	engine := fixture.engine

	fixture.repo.put(&User{ID: "u1"})

	const attempts = 8
	ticket, err := engine.IssueTicket(context.Background(), TicketPasswordlessEmail, "u1", time.Hour)
	if err != nil {
		t.Fatalf("IssueTicket failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = engine.ConsumeTicket(context.Background(), ticket)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrTicketNotFound), errors.Is(err, ErrTicketConsumed):
		default:
			t.Fatalf("unexpected consume error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("consume winners = %d, want exactly 1", winners)
	}
}

func TestTicketUnknownValue(t *testing.T) {
	fixture, done := newTestEngine(t, testConfig())
	defer done()

	if _, err := fixture.engine.ConsumeTicket(context.Background(), "mfaTotp:no-such-ticket"); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("error = %v, want ErrTicketNotFound", err)
	}
}

func TestParseTicketKind(t *testing.T) {
	cases := []struct {
		value string
		kind  TicketKind
		ok    bool
	}{
		{"emailConfirmChange:abc", TicketEmailConfirmChange, true},
		{"passwordlessEmail:abc", TicketPasswordlessEmail, true},
		{"passwordlessSms:abc", TicketPasswordlessSms, true},
		{"mfaTotp:abc", TicketMfaTotp, true},
		{"unknownKind:abc", "", false},
		{"no-separator", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		kind, ok := ParseTicketKind(tc.value)
		if ok != tc.ok || (ok && kind != tc.kind) {
			t.Fatalf("ParseTicketKind(%q) = (%q, %v), want (%q, %v)", tc.value, kind, ok, tc.kind, tc.ok)
		}
	}
}
