// Package topic turns a spoken question into the bare phrase to search for.
package topic

import "strings"

// Extractor strips interrogative scaffolding ("what is the", "who's a") from
// an utterance. The prefix list is the Cartesian product of the configured
// words, verbs and articles, flattened once in configuration order; that order
// is the matching priority.
type Extractor struct {
	prefixes []string
}

// NewExtractor precomputes every candidate prefix. For each word and verb the
// articles are tried in order and the zero-length article last, so
// "what is the " is preferred over "what is ".
func NewExtractor(words, verbs, articles []string) *Extractor {
	prefixes := make([]string, 0, len(words)*len(verbs)*(len(articles)+1))
	for _, w := range words {
		for _, v := range verbs {
			head := w + v + " "
			for _, a := range articles {
				prefixes = append(prefixes, head+a+" ")
			}
			prefixes = append(prefixes, head)
		}
	}
	return &Extractor{prefixes: prefixes}
}

// Prefixes returns a copy of the flattened prefix list.
func (e *Extractor) Prefixes() []string {
	return append([]string(nil), e.prefixes...)
}

// Matched strips the first prefix that starts utterance. ok is false when no
// prefix matched, in which case the utterance is returned unchanged.
func (e *Extractor) Matched(utterance string) (string, bool) {
	for _, p := range e.prefixes {
		if strings.HasPrefix(utterance, p) {
			return utterance[len(p):], true
		}
	}
	return utterance, false
}

// Extract returns the search topic for utterance.
func (e *Extractor) Extract(utterance string) string {
	t, _ := e.Matched(utterance)
	return t
}

// Extract is a one-shot helper for callers that do not keep an Extractor.
func Extract(utterance string, words, verbs, articles []string) string {
	return NewExtractor(words, verbs, articles).Extract(utterance)
}

// EnglishWords, EnglishVerbs and EnglishArticles are the default English
// scaffolding. Verbs carry their own leading space (or none, for
// contractions such as "what's" and "whats").
var (
	EnglishWords    = []string{"who", "whom", "what", "when"}
	EnglishVerbs    = []string{" is", "'s", "s", " are", "'re", "re", " did", " was", " were"}
	EnglishArticles = []string{"a", "an", "the", "any"}
)
