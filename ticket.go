package signet

import (
	"strings"

	"github.com/google/uuid"
)

// TicketKind tags a single-use ticket with the pending action it
// authorizes. The kind is embedded in the ticket value itself so the
// boundary layer can route a ticket without a store lookup.
type TicketKind string

const (
	// TicketEmailConfirmChange authorizes promoting a pending newEmail.
	TicketEmailConfirmChange TicketKind = "emailConfirmChange"
	// TicketPasswordlessEmail authorizes a magic-link email sign-in.
	TicketPasswordlessEmail TicketKind = "passwordlessEmail"
	// TicketPasswordlessSms tracks a pending SMS sign-in.
	TicketPasswordlessSms TicketKind = "passwordlessSms"
	// TicketMfaTotp authorizes exactly one TOTP attempt after a
	// successful first factor.
	TicketMfaTotp TicketKind = "mfaTotp"
)

func (k TicketKind) valid() bool {
	switch k {
	case TicketEmailConfirmChange, TicketPasswordlessEmail, TicketPasswordlessSms, TicketMfaTotp:
		return true
	}
	return false
}

// newTicketValue builds a "<kind>:<uuid>" value. The UUID carries the
// unpredictability; the prefix is routing metadata only.
func newTicketValue(kind TicketKind) string {
	return string(kind) + ":" + uuid.NewString()
}

// ParseTicketKind extracts and validates the kind prefix of a ticket
// value without touching storage.
func ParseTicketKind(value string) (TicketKind, bool) {
	prefix, _, found := strings.Cut(value, ":")
	if !found {
		return "", false
	}
	kind := TicketKind(prefix)
	return kind, kind.valid()
}
