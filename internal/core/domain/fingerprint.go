package domain

import (
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// NormalizeDescription trims, collapses inner whitespace and lower-cases a
// description so cosmetic differences between pulls do not split identities.
func NormalizeDescription(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Fingerprint derives the stable identity key of a raw record from vendor,
// account number, calendar date, amount and normalized description. Engine
// mutable fields (category, flags) never take part.
func Fingerprint(r RawTransaction) string {
	parts := []string{
		strings.TrimSpace(r.Vendor),
		strings.TrimSpace(r.AccountNumber),
		TruncateToDay(r.Date).Format(DateLayout),
		r.Amount.String(),
		NormalizeDescription(r.Description),
	}
	return hashParts(parts)
}

// InlineCredentialID derives a stable credential id for credentials supplied
// inline with a sync request, so the one-session-per-credential rule applies
// to them too. Field values are hashed, never stored.
func InlineCredentialID(vendor string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := []string{vendor}
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return "inline:" + vendor + ":" + hashParts(parts)[:16]
}

func hashParts(parts []string) string {
	sum := blake2b.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
