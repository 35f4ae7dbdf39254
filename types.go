package signet

import (
	"context"
	"time"
)

// User is the engine's view of an account. It is owned by the repository
// collaborator; the engine reads it and writes back only the fields it
// verifies (email promotion, TOTP counter).
type User struct {
	ID           string
	Email        string
	NewEmail     string
	PhoneNumber  string
	DisplayName  string
	Locale       string
	PasswordHash string
	Disabled     bool
	Anonymous    bool

	MfaEnabled bool
	MfaSecret  []byte
	// MfaLastCounter is the most recent TOTP time step accepted for this
	// user. Codes at or below it are replays.
	MfaLastCounter int64
}

// UserRepository is the persistence collaborator. Implementations must be
// safe for concurrent use; the engine never caches users across calls.
// Lookups for an absent user return [ErrUserNotFound], possibly wrapped.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*User, error)
	// Create inserts a new user (anonymous sign-in, provider first visit)
	// and returns it with its assigned ID.
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) error
}

// BreachChecker is the known-compromised-password lookup collaborator.
// An error return means the service could not answer, not that the
// password is safe.
type BreachChecker interface {
	IsCompromised(ctx context.Context, password string) (bool, error)
}

// MessageSender delivers a templated message to a destination address or
// phone number. Retries, if any, belong to the implementation.
type MessageSender interface {
	Send(ctx context.Context, template string, locals map[string]string, destination string) error
}

// ProviderIdentity is the resolved identity returned by an OAuth-style
// provider after its redirect dance.
type ProviderIdentity struct {
	Provider    string
	Subject     string
	Email       string
	DisplayName string
}

// ProviderResolver exchanges a provider authorization code for a resolved
// identity. Redirect and callback handling happen outside the engine.
type ProviderResolver interface {
	ResolveIdentity(ctx context.Context, provider, code string) (*ProviderIdentity, error)
}

// SessionPayload is the issued token pair plus a snapshot of the user it
// belongs to.
type SessionPayload struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
	User                 *User
}

// MFAChallenge signals a pending second factor: the caller must come back
// with an [MfaTotpRequest] carrying this ticket.
type MFAChallenge struct {
	Ticket string
}

// SignInResult is returned by [Engine.SignIn]. Exactly one of Session and
// MFA is set on success paths that end a request; both are nil for
// passwordless acknowledgements (the code or link went out of band).
type SignInResult struct {
	Session *SessionPayload
	MFA     *MFAChallenge
}
