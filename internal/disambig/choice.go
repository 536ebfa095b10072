package disambig

import (
	"strconv"
	"strings"
	"unicode"
)

var ordinals = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"1st": 1, "2nd": 2, "3rd": 3, "4th": 4, "5th": 5,
}

// Number words only count as ordinals on their own or after "number" or
// "option"; "the one about X" names a title, not the first option.
var numberWords = map[string]int{"one": 1, "two": 2, "three": 3, "four": 4, "five": 5}

// MatchChoice maps a user reply onto one of options. It accepts an exact
// title, a title fragment or an ordinal ("2", "second", "the second one",
// "number two", "last"), in that order. It returns "" when nothing matches.
func MatchChoice(reply string, options []string) string {
	r := normalize(reply)
	if r == "" || len(options) == 0 {
		return ""
	}
	for _, o := range options {
		if normalize(o) == r {
			return o
		}
	}
	if len(r) >= 3 {
		for _, o := range options {
			if strings.Contains(normalize(o), r) {
				return o
			}
		}
		for _, o := range options {
			if n := normalize(o); n != "" && strings.Contains(r, n) {
				return o
			}
		}
	}
	if i, ok := ordinal(r, len(options)); ok {
		return options[i]
	}
	return ""
}

// ordinal returns the zero-based index named by the first ordinal in r.
func ordinal(r string, n int) (int, bool) {
	tokens := strings.Fields(r)
	for i, tok := range tokens {
		if tok == "last" {
			return n - 1, true
		}
		idx, ok := ordinals[tok]
		if !ok {
			idx, ok = numberWords[tok]
			if ok && len(tokens) > 1 && (i == 0 || (tokens[i-1] != "number" && tokens[i-1] != "option")) {
				ok = false
			}
		}
		if !ok {
			v, err := strconv.Atoi(tok)
			if err != nil {
				continue
			}
			idx = v
		}
		if idx < 1 || idx > n {
			return 0, false
		}
		return idx - 1, true
	}
	return 0, false
}

// normalize lowercases s and reduces punctuation to single spaces.
func normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}
