package helpers

import (
	"strings"
	"sync"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Segmenter splits cleaned prose into sentences.
type Segmenter interface {
	Split(text string) []string
}

// SegmenterFor returns the sentence splitter for a language code. English
// (and its regional variants) use a trained Punkt tokenizer that knows about
// abbreviations; every other language falls back to punctuation rules.
func SegmenterFor(lang string) Segmenter {
	base := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(base, "-_"); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == "en" {
		if tok, err := englishTokenizer(); err == nil {
			return punktSegmenter{tok: tok}
		}
	}
	return ruleSegmenter{}
}

var (
	englishOnce sync.Once
	englishTok  *sentences.DefaultSentenceTokenizer
	englishErr  error
)

func englishTokenizer() (*sentences.DefaultSentenceTokenizer, error) {
	englishOnce.Do(func() {
		englishTok, englishErr = english.NewSentenceTokenizer(nil)
	})
	return englishTok, englishErr
}

type punktSegmenter struct {
	tok *sentences.DefaultSentenceTokenizer
}

func (p punktSegmenter) Split(text string) []string {
	var out []string
	for _, s := range p.tok.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ruleSegmenter cuts after terminal punctuation followed by whitespace, or
// right after an ideographic full stop which needs no trailing space.
type ruleSegmenter struct{}

func (ruleSegmenter) Split(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	emit := func(end int) {
		if t := strings.TrimSpace(string(runes[start:end])); t != "" {
			out = append(out, t)
		}
		start = end
	}
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '。', '！', '？':
			j := skipClosers(runes, i+1)
			emit(j)
			i = j - 1
		case '.', '!', '?', '…':
			j := skipClosers(runes, i+1)
			if j == len(runes) || unicode.IsSpace(runes[j]) {
				emit(j)
				i = j - 1
			}
		}
	}
	if start < len(runes) {
		emit(len(runes))
	}
	return out
}

func skipClosers(runes []rune, i int) int {
	for i < len(runes) {
		switch runes[i] {
		case '"', '\'', ')', ']', '»', '”', '’', '」', '』', '.', '!', '?':
			i++
		default:
			return i
		}
	}
	return i
}
