// Package cache memoises knowledge source answers in a ristretto cache.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/internal/telemetry"
	"github.com/mohammad-safakhou/wikiask/models"
)

const (
	defaultNumCounters = 1e5
	defaultMaxCost     = 32 << 20
	defaultBufferItems = 64
	defaultTTL         = 10 * time.Minute
)

type Config struct {
	NumCounters int64
	MaxCost     int64
	TTL         time.Duration
}

// Source wraps another knowledge.Source. Search results, pages and
// ambiguity answers are cached; failures are not. Random is never cached.
type Source struct {
	next    knowledge.Source
	cache   *ristretto.Cache
	ttl     time.Duration
	metrics *telemetry.Metrics
}

var _ knowledge.Source = (*Source)(nil)

// ambiguous is the cached form of a *knowledge.AmbiguousError.
type ambiguous struct {
	title   string
	options []string
}

func New(next knowledge.Source, cfg Config, metrics *telemetry.Metrics) (*Source, error) {
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = defaultNumCounters
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = defaultMaxCost
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: defaultBufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Source{next: next, cache: c, ttl: cfg.TTL, metrics: metrics}, nil
}

// Wait blocks until pending writes are visible to readers.
func (s *Source) Wait() { s.cache.Wait() }

func (s *Source) Close() { s.cache.Close() }

func key(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "\x00")
}

func (s *Source) Search(ctx context.Context, topic, lang string) ([]string, error) {
	k := key("search", lang, topic)
	if v, ok := s.cache.Get(k); ok {
		if titles, ok := v.([]string); ok {
			s.metrics.CacheLookup("search", true)
			return append([]string(nil), titles...), nil
		}
	}
	s.metrics.CacheLookup("search", false)
	titles, err := s.next.Search(ctx, topic, lang)
	if err != nil {
		return nil, err
	}
	cost := int64(len(titles)) + 1
	for _, t := range titles {
		cost += int64(len(t))
	}
	s.cache.SetWithTTL(k, append([]string(nil), titles...), cost, s.ttl)
	return titles, nil
}

func (s *Source) GetPage(ctx context.Context, title string, strategy models.Strategy, lang string) (*models.Page, error) {
	k := key("page", lang, string(strategy), title)
	if v, ok := s.cache.Get(k); ok {
		switch cached := v.(type) {
		case *models.Page:
			s.metrics.CacheLookup("page", true)
			cp := *cached
			cp.ImageURLs = append([]string(nil), cached.ImageURLs...)
			return &cp, nil
		case ambiguous:
			s.metrics.CacheLookup("page", true)
			return nil, &knowledge.AmbiguousError{Title: cached.title, Options: append([]string(nil), cached.options...)}
		}
	}
	s.metrics.CacheLookup("page", false)
	page, err := s.next.GetPage(ctx, title, strategy, lang)
	if err != nil {
		if amb, ok := knowledge.AsAmbiguous(err); ok {
			entry := ambiguous{title: amb.Title, options: append([]string(nil), amb.Options...)}
			cost := int64(len(amb.Title))
			for _, o := range amb.Options {
				cost += int64(len(o))
			}
			s.cache.SetWithTTL(k, entry, cost+1, s.ttl)
		}
		return nil, err
	}
	cp := *page
	cp.ImageURLs = append([]string(nil), page.ImageURLs...)
	s.cache.SetWithTTL(k, &cp, int64(len(page.Body)+len(page.Title))+1, s.ttl)
	return page, nil
}

func (s *Source) Random(ctx context.Context, lang string) (string, error) {
	return s.next.Random(ctx, lang)
}
