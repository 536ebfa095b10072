// Package knowledge defines the encyclopedia a topic is looked up in.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/wikiask/models"
)

// MaxSearchResults bounds every Search answer and every disambiguation list.
const MaxSearchResults = 5

// Source is an encyclopedia that can be searched and read.
type Source interface {
	// Search returns at most MaxSearchResults titles in relevance order. An
	// empty slice with a nil error means nothing was found.
	Search(ctx context.Context, topic, lang string) ([]string, error)
	// GetPage fetches one page. It fails with ErrNotFound, an *AmbiguousError
	// or an error wrapping ErrSourceUnavailable.
	GetPage(ctx context.Context, title string, strategy models.Strategy, lang string) (*models.Page, error)
	// Random returns the title of a random article.
	Random(ctx context.Context, lang string) (string, error)
}

var (
	// ErrNotFound means the source has no page for the title.
	ErrNotFound = errors.New("page not found")
	// ErrSourceUnavailable means the source could not be reached.
	ErrSourceUnavailable = errors.New("knowledge source unavailable")
)

// AmbiguousError is returned when a title names a disambiguation page.
type AmbiguousError struct {
	Title   string
	Options []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q is ambiguous: %s", e.Title, strings.Join(e.Options, ", "))
}

// Unavailable wraps err so that errors.Is(err, ErrSourceUnavailable) holds.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrSourceUnavailable, err)
}

// IsUnavailable reports whether err means the source could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// AsAmbiguous unwraps an *AmbiguousError from err.
func AsAmbiguous(err error) (*AmbiguousError, bool) {
	var amb *AmbiguousError
	if errors.As(err, &amb) {
		return amb, true
	}
	return nil, false
}
