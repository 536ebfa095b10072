package helpers

import (
	"regexp"
	"strings"
)

var (
	headingRun       = regexp.MustCompile(`={2,}[^=\n]+={2,}`)
	slashRun         = regexp.MustCompile(`/[^/]*/`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([,.;:!?])`)
)

// RemoveNestedParentheses drops every parenthesised run, including nested
// ones such as "Lemurs (/ˈliːmər/ (listen) LEE-mər)". A closing parenthesis
// with no opener is kept.
func RemoveNestedParentheses(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Speakable cleans article prose so it reads well aloud. Section headings
// ("== Etymology =="), parenthetical asides and /.../ pronunciation guides are
// removed, whitespace is collapsed and any space left dangling before
// punctuation is dropped.
func Speakable(s string) string {
	s = headingRun.ReplaceAllString(s, " ")
	s = RemoveNestedParentheses(s)
	s = slashRun.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}
