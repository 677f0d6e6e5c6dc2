package search

import "strings"

// PreferencesSource supplies the user's exclude lists as delimiter-separated
// strings, e.g. "build, .git; node_modules".
type PreferencesSource interface {
	ExcludeDirs() string
	ExcludeTypes() string
}

// ParseList splits s on commas, semicolons and whitespace into a set.
// Empty items are dropped.
func ParseList(s string) map[string]struct{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// WithPreferences returns a copy of c whose exclude sets are extended with
// the lists from prefs. A nil prefs leaves c unchanged.
func (c Criteria) WithPreferences(prefs PreferencesSource) Criteria {
	out := c.Clone()
	if prefs == nil {
		return out
	}
	out.ExcludeDirs = union(out.ExcludeDirs, ParseList(prefs.ExcludeDirs()))
	out.ExcludeSuffixes = union(out.ExcludeSuffixes, ParseList(prefs.ExcludeTypes()))
	return out
}

func union(dst, src map[string]struct{}) map[string]struct{} {
	if dst == nil {
		dst = make(map[string]struct{}, len(src))
	}
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}
