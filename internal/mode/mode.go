// Package mode defines the outbound traffic modes a proxy daemon can
// enforce and the static display metadata attached to each of them.
package mode

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	omerr "outmode/internal/errors"
)

// OutboundMode is the routing strategy the daemon currently enforces.
type OutboundMode string

const (
	// Unknown means no mode has been observed yet.
	Unknown OutboundMode = ""
	// Direct sends traffic straight to its destination.
	Direct OutboundMode = "direct"
	// Proxy routes all traffic through the proxy.
	Proxy OutboundMode = "proxy"
	// Rule lets the daemon's rule set decide per connection.
	Rule OutboundMode = "rule"
)

// all is the fixed display order.
var all = [...]OutboundMode{Direct, Proxy, Rule}

// All returns every known mode in display order.
func All() []OutboundMode {
	out := make([]OutboundMode, len(all))
	copy(out, all[:])
	return out
}

// Valid reports whether m is one of the three known tags.
func (m OutboundMode) Valid() bool {
	switch m {
	case Direct, Proxy, Rule:
		return true
	}
	return false
}

func (m OutboundMode) String() string {
	if m == Unknown {
		return "unknown"
	}
	return string(m)
}

// aliases maps accepted spellings onto tags.
var aliases = map[string]OutboundMode{
	"direct":     Direct,
	"proxy":      Proxy,
	"global":     Proxy,
	"rule":       Rule,
	"rules":      Rule,
	"rule-based": Rule,
}

// Parse turns user input into a mode.  Matching is case-insensitive
// and accepts a few aliases ("global", "rule-based").  For unknown
// input the error suggests the closest known spelling.
func Parse(s string) (OutboundMode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if m, ok := aliases[key]; ok {
		return m, nil
	}
	if hint := suggest(key); hint != "" {
		return Unknown, fmt.Errorf("%w %q (did you mean %q?)", omerr.ErrUnknownMode, s, hint)
	}
	return Unknown, fmt.Errorf("%w %q (want one of direct, proxy, rule)", omerr.ErrUnknownMode, s)
}

// suggest returns the alias closest to s when it is within edit
// distance 2, or "" otherwise.
func suggest(s string) string {
	if s == "" {
		return ""
	}
	best, bestDist := "", 3
	for _, cand := range []string{"direct", "proxy", "global", "rule", "rules", "rule-based"} {
		if d := levenshtein.ComputeDistance(s, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}
