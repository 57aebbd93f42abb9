package gate

import "github.com/bmatcuk/doublestar/v4"

// Wildcard in Policy.Confirm requires confirmation for every tool.
const Wildcard = "*"

// Policy defines which tools need a human decision.
// Entries are tool names or glob patterns such as "Imgflip_*".
type Policy struct {
	Confirm []string // Tools that need approval ("*" for all)
	Allow   []string // Exempt from Confirm, even with "*"
	Deny    []string // Always denied, never prompted
}

// Denies reports whether name is rejected without asking.
func (p Policy) Denies(name string) bool {
	return matchAny(p.Deny, name)
}

// RequiresConfirmation reports whether name must be approved by the user.
func (p Policy) RequiresConfirmation(name string) bool {
	if matchAny(p.Allow, name) {
		return false
	}
	return matchAny(p.Confirm, name)
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		// Invalid patterns are rejected by config validation; here they never match.
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
