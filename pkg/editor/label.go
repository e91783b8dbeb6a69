package editor

import (
	"strings"
	"unicode"
)

// Label returns the label to show for a field and whether to show one at all.
// An explicit label wins; an explicit empty label hides it; otherwise the
// label is derived from the name.
func Label(name string, cfg Config) (string, bool) {
	if cfg.Label != nil {
		return *cfg.Label, *cfg.Label != ""
	}
	derived := LabelFromName(name)
	return derived, derived != ""
}

// LabelFromName turns a camelCase name into a sentence: "firstName" becomes
// "First name", "homeURL" stays "Home URL".
func LabelFromName(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range runes {
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if i > 0 && unicode.IsUpper(r) && (nextLower || unicode.IsLower(runes[i-1])) {
			b.WriteRune(' ')
			if nextLower {
				r = unicode.ToLower(r)
			}
			b.WriteRune(r)
			continue
		}
		if r == '_' || r == '-' {
			b.WriteRune(' ')
			continue
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
