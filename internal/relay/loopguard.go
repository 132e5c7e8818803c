package relay

import "strings"

// DefaultRequesterPrefix prefixes requester identities synthesized for tickets
// created from chat. Authors carrying it are treated as the relay's own echo.
const DefaultRequesterPrefix = "discord-"

// LoopGuard suppresses comments that originate from requesters this relay created.
type LoopGuard struct {
	sentinel string
}

// NewLoopGuard builds a guard matching the given requester prefix.
func NewLoopGuard(prefix string) LoopGuard {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultRequesterPrefix
	}
	return LoopGuard{sentinel: prefix}
}

// ShouldForward reports whether a comment by author may be relayed.
// Matching is a case-insensitive substring test, not an identity check.
func (g LoopGuard) ShouldForward(author string) bool {
	sentinel := g.sentinel
	if sentinel == "" {
		sentinel = DefaultRequesterPrefix
	}
	return !strings.Contains(strings.ToLower(author), sentinel)
}

// Sentinel returns the lower-cased substring the guard matches on.
func (g LoopGuard) Sentinel() string {
	if g.sentinel == "" {
		return DefaultRequesterPrefix
	}
	return g.sentinel
}
