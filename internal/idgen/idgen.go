// Package idgen generates short, prefixed, collision-resistant identifiers
// for runtime objects that need one but have no natural key (the session's
// TestReqID values). Adapted from the
// "<prefix>_" + truncated-uuid idiom used throughout the teacher's
// coreengine (interrupts.go, envelope/generic.go).
package idgen

import "github.com/google/uuid"

// New returns prefix + "_" + the first 16 characters of a fresh UUIDv4's
// canonical hyphenated string (14 hex digits and two hyphens).
func New(prefix string) string {
	return prefix + "_" + uuid.New().String()[:16]
}
