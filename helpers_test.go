package signet

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/signet-auth/signet/password"
)

type memoryRepo struct {
	mu     sync.Mutex
	byID   map[string]*User
	nextID int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: map[string]*User{}}
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryRepo) GetByPhoneNumber(_ context.Context, phoneNumber string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.PhoneNumber == phoneNumber {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryRepo) Create(_ context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	copied := *user
	copied.ID = "u" + strconv.Itoa(r.nextID)
	r.byID[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (r *memoryRepo) Update(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return ErrUserNotFound
	}
	copied := *user
	r.byID[user.ID] = &copied
	return nil
}

func (r *memoryRepo) put(user *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.byID[user.ID] = &copied
}

type stubBreachChecker struct {
	mu          sync.Mutex
	compromised map[string]bool
	err         error
	calls       int
}

func (c *stubBreachChecker) IsCompromised(_ context.Context, password string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return c.compromised[password], nil
}

func (c *stubBreachChecker) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type sentMessage struct {
	Template    string
	Locals      map[string]string
	Destination string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *recordingSender) Send(_ context.Context, template string, locals map[string]string, destination string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{Template: template, Locals: locals, Destination: destination})
	return nil
}

func (s *recordingSender) last(t *testing.T) sentMessage {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("expected a message to have been sent")
	}
	return s.sent[len(s.sent)-1]
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type stubResolver struct {
	identity *ProviderIdentity
	err      error
}

func (r *stubResolver) ResolveIdentity(_ context.Context, _, _ string) (*ProviderIdentity, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.identity, nil
}

type testFixture struct {
	engine   *Engine
	redis    *redis.Client
	mini     *miniredis.Miniredis
	repo     *memoryRepo
	breach   *stubBreachChecker
	email    *recordingSender
	sms      *recordingSender
	resolver *stubResolver
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Features = FeatureConfig{
		EmailPassword:     true,
		Anonymous:         true,
		PasswordlessEmail: true,
		PasswordlessSms:   true,
		Provider:          true,
		Mfa:               true,
		EmailChange:       true,
	}
	cfg.Session.PrivateKey = []byte("signet-test-signing-secret")
	// Cheapest argon2 parameters the hasher accepts; tests hash a lot.
	cfg.Password.HashMemoryKB = 8 * 1024
	cfg.Password.HashTime = 1
	cfg.Password.HashParallelism = 1
	cfg.Password.HashSaltLength = 16
	cfg.Password.HashKeyLength = 16
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*testFixture, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	fixture := &testFixture{
		mini:     mr,
		redis:    rdb,
		repo:     newMemoryRepo(),
		breach:   &stubBreachChecker{compromised: map[string]bool{}},
		email:    &recordingSender{},
		sms:      &recordingSender{},
		resolver: &stubResolver{},
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserRepository(fixture.repo).
		WithBreachChecker(fixture.breach).
		WithEmailSender(fixture.email).
		WithSMSSender(fixture.sms).
		WithProviderResolver(fixture.resolver).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}
	fixture.engine = engine

	return fixture, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func hashFor(t *testing.T, cfg Config, plain string) string {
	t.Helper()
	hasher, err := password.NewHasher(password.Config{
		MemoryKB:    cfg.Password.HashMemoryKB,
		Time:        cfg.Password.HashTime,
		Parallelism: cfg.Password.HashParallelism,
		SaltLength:  cfg.Password.HashSaltLength,
		KeyLength:   cfg.Password.HashKeyLength,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	hashed, err := hasher.Hash(plain)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	return hashed
}

// totpCodeAt computes the code a correct authenticator would show for the
// given time, using the same derivation as the verifier.
func totpCodeAt(t *testing.T, cfg TotpConfig, secret []byte, at time.Time) string {
	t.Helper()
	counter := at.Unix() / int64(cfg.PeriodSec)
	code, err := hotpCode(secret, counter, cfg.Digits, cfg.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}
	return code
}

func mustSignIn(t *testing.T, engine *Engine, req SignInRequest) *SignInResult {
	t.Helper()
	result, err := engine.SignIn(context.Background(), req)
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	return result
}

func wantSignInErr(t *testing.T, engine *Engine, req SignInRequest, want error) {
	t.Helper()
	_, err := engine.SignIn(context.Background(), req)
	if !errors.Is(err, want) {
		t.Fatalf("SignIn error = %v, want %v", err, want)
	}
}
