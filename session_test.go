package signet

import (
	"context"
	"errors"
	"testing"
	"time"
)

func issueTestSession(t *testing.T, fixture *testFixture, cfg Config) *SessionPayload {
	t.Helper()
	seedPasswordUser(t, fixture, cfg, "u1", "alice@example.com", "correct-horse-battery")
	result := mustSignIn(t, fixture.engine, EmailPasswordRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	if result.Session == nil {
		t.Fatal("expected a session")
	}
	return result.Session
}

func TestRefreshRotation(t *testing.T) {
	cfg := testConfig()
	fixture, done := newTestEngine(t, cfg)
	defer done()
	engine := fixture.engine

	session := issueTestSession(t, fixture, cfg)

	rotated, err := engine.RefreshSession(context.Background(), session.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshSession failed: %v", err)
	}
	if rotated.RefreshToken == session.RefreshToken {
		t.Fatal("rotation must issue a new refresh token")
	}

	// The old token was consumed by the rotation.
	if _, err := engine.RefreshSession(context.Background(), session.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("reused token error = %v, want ErrRefreshInvalid", err)
	}

	// The new one works.
	if _, err := engine.RefreshSession(context.Background(), rotated.RefreshToken); err != nil {
		t.Fatalf("rotated token failed: %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	cfg := testConfig()
	fixture, done := newTestEngine(t, cfg)
	defer done()
	engine := fixture.engine

	session := issueTestSession(t, fixture, cfg)

	for i := 0; i < 3; i++ {
		if err := engine.RevokeSession(context.Background(), session.RefreshToken); err != nil {
			t.Fatalf("RevokeSession attempt %d failed: %v", i, err)
		}
	}
	if err := engine.RevokeSession(context.Background(), "never-issued-token"); err != nil {
		t.Fatalf("revoking an unknown token failed: %v", err)
	}

	if _, err := engine.RefreshSession(context.Background(), session.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("revoked token error = %v, want ErrRefreshInvalid", err)
	}
}

func TestRefreshTamperedTokenRejected(t *testing.T) {
	cfg := testConfig()
	fixture, done := newTestEngine(t, cfg)
	defer done()
	engine := fixture.engine

	session := issueTestSession(t, fixture, cfg)

	tampered := []byte(session.RefreshToken)
	tampered[len(tampered)-1] ^= 1
	if _, err := engine.RefreshSession(context.Background(), string(tampered)); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("tampered token error = %v, want ErrRefreshInvalid", err)
	}

	// The legitimate token is untouched by the failed attempt.
	if _, err := engine.RefreshSession(context.Background(), session.RefreshToken); err != nil {
		t.Fatalf("legitimate token failed: %v", err)
	}
}

func TestRefreshForDisabledUserRejected(t *testing.T) {
	cfg := testConfig()
	fixture, done := newTestEngine(t, cfg)
	defer done()
	engine := fixture.engine

	session := issueTestSession(t, fixture, cfg)

	user, err := fixture.repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	user.Disabled = true
	fixture.repo.put(user)

	if _, err := engine.RefreshSession(context.Background(), session.RefreshToken); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("error = %v, want ErrUserDisabled", err)
	}
}

func TestConsumptionSurvivesIssuanceFailure(t *testing.T) {
	fixture, done := newTestEngine(t, testConfig())
	defer done()
	engine := fixture.engine

	fixture.repo.put(&User{ID: "u1", Email: "alice@example.com"})

	ticket, err := engine.IssueTicket(context.Background(), TicketPasswordlessEmail, "u1", time.Hour)
	if err != nil {
		t.Fatalf("IssueTicket failed: %v", err)
	}

	// Disable the account after the ticket went out: redemption fails
	// after the consume step, and there is no rollback.
	user, _ := fixture.repo.GetByID(context.Background(), "u1")
	user.Disabled = true
	fixture.repo.put(user)

	if _, err := engine.SignInWithTicket(context.Background(), ticket); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("error = %v, want ErrUserDisabled", err)
	}
	if _, err := engine.SignInWithTicket(context.Background(), ticket); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("retried ticket error = %v, want ErrTicketNotFound: consumption must not roll back", err)
	}
}
