// Package local serves articles from a JSON file indexed in memory with
// bleve. It backs offline runs and tests.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/models"
)

// Entry is one page in the source file. Entries with Options are
// disambiguation pages.
type Entry struct {
	Title   string   `json:"title"`
	Lang    string   `json:"lang,omitempty"`
	Body    string   `json:"body"`
	Images  []string `json:"images,omitempty"`
	Thumb   string   `json:"thumbnail,omitempty"`
	Options []string `json:"options,omitempty"`
}

// Source implements knowledge.Source over a fixed set of entries.
type Source struct {
	index   bleve.Index
	entries map[string]Entry // keyed by lowercased title
	titles  []string         // articles only, sorted
	logger  *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ knowledge.Source = (*Source)(nil)

// Open reads entries from the JSON file at path.
func Open(path string, logger *zap.Logger) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open local pages: %w", err)
	}
	defer f.Close()
	return Load(f, logger)
}

// Load reads a JSON array of entries from r.
func Load(r io.Reader, logger *zap.Logger) (*Source, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode local pages: %w", err)
	}
	return New(entries, logger)
}

// New indexes entries. Later entries replace earlier ones with the same title.
func New(entries []Entry, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	s := &Source{
		index:   index,
		entries: make(map[string]Entry, len(entries)),
		logger:  logger.Named("local"),
		rnd:     rand.New(rand.NewSource(rand.Int63())),
	}
	for _, e := range entries {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		e.Title = title
		s.entries[key] = e
		doc := map[string]interface{}{"title": title, "body": e.Body}
		if err := index.Index(key, doc); err != nil {
			return nil, fmt.Errorf("index %q: %w", title, err)
		}
	}
	for _, e := range s.entries {
		if len(e.Options) == 0 {
			s.titles = append(s.titles, e.Title)
		}
	}
	sort.Strings(s.titles)
	s.logger.Debug("local pages indexed", zap.Int("count", len(s.entries)))
	return s, nil
}

// Close releases the index.
func (s *Source) Close() error {
	return s.index.Close()
}

// Search runs a match query over titles and bodies. An exact title match
// always ranks first.
func (s *Source) Search(ctx context.Context, topic, lang string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, knowledge.Unavailable("search", err)
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, nil
	}
	q := bleve.NewMatchQuery(topic)
	req := bleve.NewSearchRequestOptions(q, knowledge.MaxSearchResults, 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", topic, err)
	}
	titles := make([]string, 0, len(res.Hits)+1)
	exact, hasExact := s.entries[strings.ToLower(topic)]
	if hasExact {
		titles = append(titles, exact.Title)
	}
	for _, hit := range res.Hits {
		if e, ok := s.entries[hit.ID]; ok && (!hasExact || e.Title != exact.Title) {
			titles = append(titles, e.Title)
		}
	}
	if len(titles) > knowledge.MaxSearchResults {
		titles = titles[:knowledge.MaxSearchResults]
	}
	return titles, nil
}

// GetPage looks title up case-insensitively. The lenient strategy falls back
// to the closest title within two edits per term.
func (s *Source) GetPage(ctx context.Context, title string, strategy models.Strategy, lang string) (*models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, knowledge.Unavailable("page", err)
	}
	key := strings.ToLower(strings.TrimSpace(title))
	e, ok := s.entries[key]
	if !ok && strategy == models.StrategyLenient {
		e, ok, _ = s.fuzzy(title)
	}
	if !ok {
		return nil, fmt.Errorf("page %q: %w", title, knowledge.ErrNotFound)
	}
	if len(e.Options) > 0 {
		return nil, &knowledge.AmbiguousError{Title: e.Title, Options: append([]string(nil), e.Options...)}
	}
	pageLang := e.Lang
	if pageLang == "" {
		pageLang = lang
	}
	return &models.Page{
		Title:        e.Title,
		Lang:         pageLang,
		Body:         e.Body,
		ImageURLs:    append([]string(nil), e.Images...),
		ThumbnailURL: e.Thumb,
	}, nil
}

func (s *Source) fuzzy(title string) (Entry, bool, error) {
	q := bleve.NewMatchQuery(title)
	q.SetField("title")
	q.SetFuzziness(2)
	res, err := s.index.Search(bleve.NewSearchRequestOptions(q, 1, 0, false))
	if err != nil {
		s.logger.Warn("fuzzy title search failed", zap.String("title", title), zap.Error(err))
		return Entry{}, false, err
	}
	if len(res.Hits) == 0 {
		return Entry{}, false, nil
	}
	e, ok := s.entries[res.Hits[0].ID]
	return e, ok, nil
}

// Random returns the title of an entry that is not a disambiguation page.
func (s *Source) Random(ctx context.Context, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", knowledge.Unavailable("random", err)
	}
	if len(s.titles) == 0 {
		return "", fmt.Errorf("random: %w", knowledge.ErrNotFound)
	}
	s.mu.Lock()
	i := s.rnd.Intn(len(s.titles))
	s.mu.Unlock()
	return s.titles[i], nil
}
