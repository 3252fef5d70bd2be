// Package sentinel parses the in-band %SKIP% and %ABORT% tokens that mark a
// non-answer inside a raw form value.
//
// Two grammars exist on purpose. Parse is the strict canonical grammar used
// for values the system itself wrote; Format is its exact inverse. Detect is
// the lenient grammar for untrusted agent output (table cells, patch values),
// which tolerates case variants and legacy syntaxes.
package sentinel

import (
	"fmt"
	"regexp"
	"strings"
)

type Type string

const (
	Skip  Type = "skip"
	Abort Type = "abort"
)

// Token is a decoded sentinel. Reason is optional.
type Token struct {
	Type   Type   `json:"type"`
	Reason string `json:"reason,omitempty"`
}

var (
	// Canonical: %SKIP% or %ABORT%, optionally followed by "(reason)" with at
	// most whitespace in between. Case-sensitive.
	strictRe = regexp.MustCompile(`^%(SKIP|ABORT)%(?: ?\((.*)\))?$`)

	// Lenient forms, tried in order:
	//   %skip% (reason) / %skip%(reason)
	//   %skip:reason%
	//   %skip(reason)%
	//   %skip% trailing free text (reason dropped)
	lenientParenRe   = regexp.MustCompile(`(?i)^%(skip|abort)%\s*\((.*)\)$`)
	lenientColonRe   = regexp.MustCompile(`(?i)^%(skip|abort):([^%]*)%$`)
	lenientCompactRe = regexp.MustCompile(`(?i)^%(skip|abort)\((.*)\)%$`)
	lenientBareRe    = regexp.MustCompile(`(?i)^%(skip|abort)%`)
)

// Parse decodes a sentinel using the strict grammar. It returns nil when s is
// not exactly a canonical sentinel. The legacy colon syntax (%SKIP:reason%)
// and case variants are rejected here; use Detect for those.
func Parse(s string) *Token {
	m := strictRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	return &Token{Type: typeFromKeyword(m[1]), Reason: strings.TrimSpace(m[2])}
}

// Detect decodes a sentinel using the lenient grammar. Trailing free text
// without parentheses is accepted with the reason omitted. Returns nil when s
// does not start with a sentinel keyword at all.
func Detect(s string) *Token {
	s = strings.TrimSpace(s)
	for _, re := range []*regexp.Regexp{lenientParenRe, lenientColonRe, lenientCompactRe} {
		if m := re.FindStringSubmatch(s); m != nil {
			return &Token{Type: typeFromKeyword(m[1]), Reason: strings.TrimSpace(m[2])}
		}
	}
	if m := lenientBareRe.FindStringSubmatch(s); m != nil {
		return &Token{Type: typeFromKeyword(m[1])}
	}
	return nil
}

// Format renders a token in the canonical syntax accepted by Parse.
func Format(t Token) string {
	keyword := "%SKIP%"
	if t.Type == Abort {
		keyword = "%ABORT%"
	}
	if t.Reason == "" {
		return keyword
	}
	return fmt.Sprintf("%s (%s)", keyword, t.Reason)
}

func typeFromKeyword(keyword string) Type {
	if strings.EqualFold(keyword, "abort") {
		return Abort
	}
	return Skip
}
