package signet

import (
	"errors"
	"time"
)

// Config carries every tunable the engine reads. It is loaded once at
// startup, validated by [Builder.Build], and never consulted from the
// environment afterwards.
type Config struct {
	Ticket     TicketConfig
	Otp        OtpConfig
	Totp       TotpConfig
	Password   PasswordConfig
	Session    SessionConfig
	Features   FeatureConfig
	Downstream DownstreamConfig
}

/*
====================================
TICKET CONFIG
====================================
*/

// TicketConfig sets per-kind ticket lifetimes.
type TicketConfig struct {
	RedisPrefix     string
	EmailChangeTTL  time.Duration
	PasswordlessTTL time.Duration
	MfaChallengeTTL time.Duration
}

/*
====================================
OTP CONFIG
====================================
*/

// OtpConfig governs SMS one-time codes. OTP records are keyed by phone
// number and carry a deliberately short lifetime.
type OtpConfig struct {
	Digits int
	TTL    time.Duration
}

/*
====================================
TOTP CONFIG
====================================
*/

// TotpConfig governs time-based one-time code verification for the MFA
// second factor.
type TotpConfig struct {
	Digits    int
	PeriodSec int
	Skew      int // accepted steps either side of now
	Algorithm string
	Issuer    string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig combines the policy checks with the argon2id hashing
// parameters.
type PasswordConfig struct {
	MinLength          int
	BreachCheckEnabled bool
	// BreachFailOpen controls what happens when the breach-check
	// collaborator itself fails: false (default) rejects the password,
	// true accepts it with only the length check applied.
	BreachFailOpen bool

	HashMemoryKB    uint32
	HashTime        uint32
	HashParallelism uint8
	HashSaltLength  uint32
	HashKeyLength   uint32
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig sets token lifetimes and JWT signing material.
type SessionConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

/*
====================================
FEATURE FLAGS
====================================
*/

// FeatureConfig switches sign-in methods on and off. A disabled method
// fails with [ErrFeatureDisabled], which boundary layers map to 404.
type FeatureConfig struct {
	EmailPassword     bool
	Anonymous         bool
	PasswordlessEmail bool
	PasswordlessSms   bool
	Provider          bool
	Mfa               bool
	EmailChange       bool
}

/*
====================================
DOWNSTREAM CONFIG
====================================
*/

// DownstreamConfig bounds every outbound collaborator call. A timeout is
// surfaced as [ErrDownstreamUnavailable], never as an indefinite block.
type DownstreamConfig struct {
	BreachCheckTimeout time.Duration
	DeliveryTimeout    time.Duration
	ProviderTimeout    time.Duration
}

// DefaultConfig returns a Config with conservative production defaults.
// Feature flags default to off except email/password.
func DefaultConfig() Config {
	return Config{
		Ticket: TicketConfig{
			RedisPrefix:     "sgt",
			EmailChangeTTL:  time.Hour,
			PasswordlessTTL: 15 * time.Minute,
			MfaChallengeTTL: 5 * time.Minute,
		},
		Otp: OtpConfig{
			Digits: 6,
			TTL:    5 * time.Minute,
		},
		Totp: TotpConfig{
			Digits:    6,
			PeriodSec: 30,
			Skew:      1,
			Algorithm: "SHA1",
			Issuer:    "signet",
		},
		Password: PasswordConfig{
			MinLength:          9,
			BreachCheckEnabled: false,
			BreachFailOpen:     false,
			HashMemoryKB:       64 * 1024,
			HashTime:           2,
			HashParallelism:    2,
			HashSaltLength:     16,
			HashKeyLength:      32,
		},
		Session: SessionConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    30 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "signet",
		},
		Features: FeatureConfig{
			EmailPassword: true,
			Mfa:           true,
		},
		Downstream: DownstreamConfig{
			BreachCheckTimeout: 3 * time.Second,
			DeliveryTimeout:    10 * time.Second,
			ProviderTimeout:    10 * time.Second,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Ticket.RedisPrefix == "" {
		return errors.New("ticket redis prefix required")
	}
	if cfg.Ticket.EmailChangeTTL <= 0 || cfg.Ticket.PasswordlessTTL <= 0 || cfg.Ticket.MfaChallengeTTL <= 0 {
		return errors.New("ticket TTLs must be positive")
	}
	if cfg.Otp.Digits < 4 || cfg.Otp.Digits > 10 {
		return errors.New("otp digits out of range")
	}
	if cfg.Otp.TTL <= 0 {
		return errors.New("otp TTL must be positive")
	}
	if cfg.Totp.Digits < 6 || cfg.Totp.Digits > 8 {
		return errors.New("totp digits out of range")
	}
	if cfg.Totp.PeriodSec <= 0 {
		return errors.New("totp period must be positive")
	}
	if cfg.Totp.Skew < 0 || cfg.Totp.Skew > 2 {
		return errors.New("totp skew out of range")
	}
	if cfg.Password.MinLength < 1 {
		return errors.New("password min length must be positive")
	}
	if cfg.Session.AccessTTL <= 0 || cfg.Session.RefreshTTL <= 0 {
		return errors.New("session TTLs must be positive")
	}
	if cfg.Session.RefreshTTL <= cfg.Session.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if cfg.Downstream.BreachCheckTimeout <= 0 || cfg.Downstream.DeliveryTimeout <= 0 || cfg.Downstream.ProviderTimeout <= 0 {
		return errors.New("downstream timeouts must be positive")
	}
	return nil
}
