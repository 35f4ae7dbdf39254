// Package signet provides an authentication ticket and session-issuance
// engine: single-use verification tokens (tickets, SMS one-time codes,
// TOTP challenges) backed by Redis, credential policy enforcement, and
// JWT access tokens paired with opaque refresh tokens.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// signet is the public surface. It exposes [Engine], [Builder], [Config],
// the [SignInRequest] variants, and sentinel errors. Token encoding and
// shared helpers live under internal/ and are never exported.
//
// External collaborators (the user repository, the breached-password
// lookup service, email/SMS delivery, and OAuth-style identity providers)
// are injected as interfaces. The engine never performs I/O against them
// without a deadline.
//
// # Correctness contract
//
// Tickets and one-time codes are consumed at most once. Consumption is a
// conditional compare-and-delete at the storage layer: two concurrent
// consumers of the same value see exactly one success. A consumed ticket
// stays consumed even if session issuance fails afterwards; callers must
// request a fresh verification in that case.
package signet
