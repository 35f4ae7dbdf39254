package signet

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/signet-auth/signet/jwt"
	"github.com/signet-auth/signet/password"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build, which validates the configuration and wires every store.
type Builder struct {
	config Config
	redis  *redis.Client

	users            UserRepository
	breachChecker    BreachChecker
	emailSender      MessageSender
	smsSender        MessageSender
	providerResolver ProviderResolver

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the ticket, OTP, and refresh
// stores.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserRepository sets the persistence collaborator.
func (b *Builder) WithUserRepository(repo UserRepository) *Builder {
	b.users = repo
	return b
}

// WithBreachChecker sets the compromised-password lookup collaborator.
// Required only when Config.Password.BreachCheckEnabled is true.
func (b *Builder) WithBreachChecker(checker BreachChecker) *Builder {
	b.breachChecker = checker
	return b
}

// WithEmailSender sets the email delivery collaborator.
func (b *Builder) WithEmailSender(sender MessageSender) *Builder {
	b.emailSender = sender
	return b
}

// WithSMSSender sets the SMS delivery collaborator.
func (b *Builder) WithSMSSender(sender MessageSender) *Builder {
	b.smsSender = sender
	return b
}

// WithProviderResolver sets the OAuth-style identity resolution
// collaborator.
func (b *Builder) WithProviderResolver(resolver ProviderResolver) *Builder {
	b.providerResolver = resolver
	return b
}

// Build validates the configuration and returns a ready Engine. A
// Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user repository required")
	}
	if b.config.Password.BreachCheckEnabled && b.breachChecker == nil {
		return nil, errors.New("breach checker required when breach checking enabled")
	}
	if b.config.Features.PasswordlessEmail && b.emailSender == nil {
		return nil, errors.New("email sender required for passwordless email")
	}
	if b.config.Features.EmailChange && b.emailSender == nil {
		return nil, errors.New("email sender required for email change")
	}
	if b.config.Features.PasswordlessSms && b.smsSender == nil {
		return nil, errors.New("sms sender required for passwordless sms")
	}
	if b.config.Features.Provider && b.providerResolver == nil {
		return nil, errors.New("provider resolver required for provider sign-in")
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     b.config.Session.AccessTTL,
		SigningMethod: jwt.SigningMethod(b.config.Session.SigningMethod),
		PrivateKey:    b.config.Session.PrivateKey,
		PublicKey:     b.config.Session.PublicKey,
		Issuer:        b.config.Session.Issuer,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		MemoryKB:    b.config.Password.HashMemoryKB,
		Time:        b.config.Password.HashTime,
		Parallelism: b.config.Password.HashParallelism,
		SaltLength:  b.config.Password.HashSaltLength,
		KeyLength:   b.config.Password.HashKeyLength,
	})
	if err != nil {
		return nil, err
	}

	prefix := b.config.Ticket.RedisPrefix
	engine := &Engine{
		config:           b.config,
		tickets:          newTicketStore(b.redis, prefix),
		otps:             newOtpStore(b.redis, prefix),
		refreshStore:     newRefreshStore(b.redis, prefix),
		users:            b.users,
		breachChecker:    b.breachChecker,
		emailSender:      b.emailSender,
		smsSender:        b.smsSender,
		providerResolver: b.providerResolver,
		totp:             newTotpManager(b.config.Totp),
		jwtManager:       jwtManager,
		passwordHash:     hasher,
	}

	b.built = true
	return engine, nil
}
