package lookup

import (
	"fmt"

	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/models"
)

// Kind tags the variant held by a Result.
type Kind int

const (
	NoMatch Kind = iota
	ArticleMatch
	Disambiguation
)

func (k Kind) String() string {
	switch k {
	case NoMatch:
		return "no_match"
	case ArticleMatch:
		return "match"
	case Disambiguation:
		return "disambiguation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of one lookup. Article is set only for ArticleMatch,
// Options only for Disambiguation (between one and five titles).
type Result struct {
	Kind     Kind
	Article  *models.Article
	Options  []string
	Strategy models.Strategy
}

func Matched(a *models.Article) Result {
	return Result{Kind: ArticleMatch, Article: a, Strategy: a.Strategy}
}

// Ambiguous builds a Disambiguation result from the first five options. No
// options at all is a NoMatch.
func Ambiguous(options []string, strategy models.Strategy) Result {
	if len(options) == 0 {
		return Result{Kind: NoMatch, Strategy: strategy}
	}
	if len(options) > knowledge.MaxSearchResults {
		options = options[:knowledge.MaxSearchResults]
	}
	return Result{Kind: Disambiguation, Options: append([]string(nil), options...), Strategy: strategy}
}

func None(strategy models.Strategy) Result {
	return Result{Kind: NoMatch, Strategy: strategy}
}
