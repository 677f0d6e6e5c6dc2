// Package pattern compiles and evaluates the glob patterns used for file
// names and line content.
//
// Patterns support two wildcards: '*' matches any run of characters
// (including '/') and '?' matches exactly one character. Every other
// character, including '\', '[' and '{', matches itself.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalidPattern is returned when a pattern cannot be compiled.
var ErrInvalidPattern = errors.New("invalid pattern")

// Pattern is a compiled glob.
type Pattern struct {
	source        string
	glob          string
	caseSensitive bool
	re            *regexp.Regexp
}

// Compile compiles a glob for matching whole subjects.
// A fragment without wildcards is wrapped as *fragment* so that it matches
// as a substring. When caseSensitive is false the source is lowercased here
// and subjects are lowercased in Match.
func Compile(src string, caseSensitive bool) (*Pattern, error) {
	glob := src
	if !HasWildcards(src) {
		glob = "*" + src + "*"
	}
	return compile(src, glob, caseSensitive)
}

// CompileLine compiles a content pattern. Lines are always matched as
// "contains", so the glob is wrapped even when it carries wildcards.
func CompileLine(src string, caseSensitive bool) (*Pattern, error) {
	return compile(src, "*"+src+"*", caseSensitive)
}

// Match is a one-shot helper that compiles pattern and matches text.
func Match(pattern, text string, caseSensitive bool) (bool, error) {
	p, err := Compile(pattern, caseSensitive)
	if err != nil {
		return false, err
	}
	return p.Match(text), nil
}

// HasWildcards reports whether src contains '*' or '?'.
func HasWildcards(src string) bool {
	return strings.ContainsAny(src, "*?")
}

func compile(src, glob string, caseSensitive bool) (*Pattern, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	if !utf8.ValidString(src) {
		return nil, fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidPattern, src)
	}
	if !caseSensitive {
		glob = strings.ToLower(glob)
	}

	re, err := regexp.Compile(translate(glob))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, src, err)
	}

	return &Pattern{
		source:        src,
		glob:          glob,
		caseSensitive: caseSensitive,
		re:            re,
	}, nil
}

// translate turns a glob into an anchored regular expression.
func translate(glob string) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)

	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			b.WriteString(regexp.QuoteMeta(literal.String()))
			literal.Reset()
		}
	}

	lastStar := false
	for _, r := range glob {
		switch r {
		case '*':
			// Runs of stars collapse into one.
			if !lastStar {
				flush()
				b.WriteString(`.*`)
			}
			lastStar = true
			continue
		case '?':
			flush()
			b.WriteString(`.`)
		default:
			literal.WriteRune(r)
		}
		lastStar = false
	}
	flush()
	b.WriteString(`$`)
	return b.String()
}

// Match reports whether text matches the pattern.
func (p *Pattern) Match(text string) bool {
	if !p.caseSensitive {
		text = strings.ToLower(text)
	}
	return p.re.MatchString(text)
}

// Source returns the pattern as given by the caller.
func (p *Pattern) Source() string { return p.source }

// Glob returns the normalized glob the pattern was compiled from.
func (p *Pattern) Glob() string { return p.glob }

// CaseSensitive reports whether the pattern matches case-sensitively.
func (p *Pattern) CaseSensitive() bool { return p.caseSensitive }

// String returns the normalized glob.
func (p *Pattern) String() string { return p.glob }
