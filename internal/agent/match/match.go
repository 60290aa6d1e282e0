package match

import (
	"strings"
	"time"
)

// Mode decides whether a keyword must equal the observed text or merely
// appear within it.
type Mode string

const (
	ModeExact   Mode = "exact"
	ModePartial Mode = "partial"
)

// Normalize maps unknown modes to partial, the wire default.
func Normalize(mode string) Mode {
	if Mode(mode) == ModeExact {
		return ModeExact
	}
	return ModePartial
}

// Rule is one keyword rule from the server.
type Rule struct {
	ID        string
	Text      string
	Mode      Mode
	CreatedAt time.Time
}

// Check returns every rule the candidate matches. Exact rules require the
// trimmed candidate to equal the rule text case-insensitively; partial rules
// require case-insensitive containment anywhere. All matching rules fire
// independently. No I/O happens here.
func Check(candidate string, rules []Rule) []Rule {
	if candidate == "" || len(rules) == 0 {
		return nil
	}

	trimmed := strings.TrimSpace(candidate)
	lowered := strings.ToLower(candidate)

	var matched []Rule
	for _, rule := range rules {
		if rule.Text == "" {
			continue
		}
		switch rule.Mode {
		case ModeExact:
			if strings.EqualFold(trimmed, rule.Text) {
				matched = append(matched, rule)
			}
		default:
			if strings.Contains(lowered, strings.ToLower(rule.Text)) {
				matched = append(matched, rule)
			}
		}
	}
	return matched
}
