// Package pagination reads an article out a few sentences at a time.
package pagination

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/mohammad-safakhou/wikiask/internal/helpers"
	"github.com/mohammad-safakhou/wikiask/models"
)

// ErrExhausted is returned by Continue when nothing is left to read.
var ErrExhausted = errors.New("article exhausted")

type Config struct {
	IntroSentences int    // opening slice size
	IntroChars     int    // longer openings fall back to one sentence
	MoreSentences  int    // sentences added per Continue
	HeadingMarker  string // an opening that contains it falls back to one sentence
}

// Slice is the half-open sentence range [Start, End) of an article.
type Slice struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func (s Slice) Empty() bool { return s.End <= s.Start }

type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	if cfg.IntroSentences <= 0 {
		cfg.IntroSentences = 2
	}
	if cfg.IntroChars <= 0 {
		cfg.IntroChars = 250
	}
	if cfg.MoreSentences <= 0 {
		cfg.MoreSentences = 5
	}
	if cfg.HeadingMarker == "" {
		cfg.HeadingMarker = "=="
	}
	return &Engine{cfg: cfg}
}

// Sentences returns the article's sentences, cleaning and segmenting the body
// on first use. The result is stored on the article.
func (e *Engine) Sentences(a *models.Article) []string {
	if a == nil {
		return nil
	}
	if !a.Segmented {
		a.Sentences = helpers.SegmenterFor(a.Lang).Split(helpers.Speakable(a.Body))
		a.Segmented = true
	}
	return a.Sentences
}

// Open returns the opening slice and the cursor after it.
func (e *Engine) Open(a *models.Article) (Slice, int) {
	sentences := e.Sentences(a)
	take := min(e.cfg.IntroSentences, len(sentences))
	if take > 1 {
		text := strings.Join(sentences[:take], " ")
		if utf8.RuneCountInString(text) > e.cfg.IntroChars || strings.Contains(text, e.cfg.HeadingMarker) {
			take = 1
		}
	}
	return slice(sentences, 0, take), take
}

// Continue returns the slice following cursor and the advanced cursor, or
// ErrExhausted when cursor is already at the end.
func (e *Engine) Continue(a *models.Article, cursor int) (Slice, int, error) {
	sentences := e.Sentences(a)
	cursor = max(0, min(cursor, len(sentences)))
	if cursor == len(sentences) {
		return Slice{Start: cursor, End: cursor}, cursor, ErrExhausted
	}
	end := min(cursor+e.cfg.MoreSentences, len(sentences))
	return slice(sentences, cursor, end), end, nil
}

func slice(sentences []string, start, end int) Slice {
	return Slice{Text: strings.Join(sentences[start:end], " "), Start: start, End: end}
}
