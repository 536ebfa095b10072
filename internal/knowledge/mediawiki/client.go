// Package mediawiki reads articles from a MediaWiki api.php endpoint such as
// Wikipedia.
package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/internal/telemetry"
)

// Options configures a Client.
type Options struct {
	APIURL             string // e.g. https://%s.wikipedia.org/w/api.php
	UserAgent          string
	Timeout            time.Duration
	RateLimit          float64 // requests per second, 0 disables pacing
	Burst              int
	DefaultLanguage    string
	SupportedLanguages []string
	IntroOnly          bool
	HTTPClient         *http.Client
	Logger             *zap.Logger
	Metrics            *telemetry.Metrics
}

// Client implements knowledge.Source over the MediaWiki action API.
type Client struct {
	apiURL      string
	userAgent   string
	http        *http.Client
	limiter     *rate.Limiter
	defaultLang string
	supported   map[string]struct{}
	introOnly   bool
	logger      *zap.Logger
	metrics     *telemetry.Metrics
}

var _ knowledge.Source = (*Client)(nil)

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	lang := strings.ToLower(strings.TrimSpace(opts.DefaultLanguage))
	if lang == "" {
		lang = "en"
	}
	supported := map[string]struct{}{lang: {}}
	for _, l := range opts.SupportedLanguages {
		supported[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	return &Client{
		apiURL:      opts.APIURL,
		userAgent:   opts.UserAgent,
		http:        hc,
		limiter:     limiter,
		defaultLang: lang,
		supported:   supported,
		introOnly:   opts.IntroOnly,
		logger:      logger.Named("mediawiki"),
		metrics:     opts.Metrics,
	}
}

// language returns lang when it is supported, otherwise the default.
func (c *Client) language(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if l == "" || l == c.defaultLang {
		return c.defaultLang
	}
	if _, ok := c.supported[l]; !ok {
		c.logger.Warn("unsupported language, using default", zap.String("lang", l), zap.String("default", c.defaultLang))
		return c.defaultLang
	}
	return l
}

func (c *Client) endpoint(lang string) string {
	return fmt.Sprintf(c.apiURL, lang)
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// get performs one API call. Transport faults, throttling and server errors
// are reported as knowledge.ErrSourceUnavailable; everything else is a plain
// error.
func (c *Client) get(ctx context.Context, op, lang string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.SourceRequest(op, "unavailable")
			return knowledge.Unavailable(op, err)
		}
	}
	params.Set("format", "json")
	params.Set("formatversion", "2")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(lang)+"?"+params.Encode(), nil)
	if err != nil {
		c.metrics.SourceRequest(op, "error")
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.SourceRequest(op, "unavailable")
		return knowledge.Unavailable(op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		c.metrics.SourceRequest(op, "unavailable")
		return knowledge.Unavailable(op, fmt.Errorf("http status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.SourceRequest(op, "unavailable")
		return knowledge.Unavailable(op, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.SourceRequest(op, "error")
		return fmt.Errorf("%s: unexpected http status %d", op, resp.StatusCode)
	}
	var envelope struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.metrics.SourceRequest(op, "error")
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if envelope.Error != nil {
		c.metrics.SourceRequest(op, "error")
		if envelope.Error.Code == "missingtitle" || envelope.Error.Code == "invalidtitle" {
			return fmt.Errorf("%s: %w", op, knowledge.ErrNotFound)
		}
		return fmt.Errorf("%s: api error %s: %s", op, envelope.Error.Code, envelope.Error.Info)
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.SourceRequest(op, "error")
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	c.metrics.SourceRequest(op, "ok")
	return nil
}

type searchResponse struct {
	Query struct {
		SearchInfo struct {
			Suggestion string `json:"suggestion"`
		} `json:"searchinfo"`
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

func (c *Client) search(ctx context.Context, q, lang string, limit int, suggestion bool) (searchResponse, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", q)
	params.Set("srlimit", fmt.Sprint(limit))
	params.Set("srprop", "")
	if suggestion {
		params.Set("srinfo", "suggestion")
	}
	var out searchResponse
	err := c.get(ctx, "search", lang, params, &out)
	return out, err
}

// Search returns up to five article titles for topic.
func (c *Client) Search(ctx context.Context, topic, lang string) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, nil
	}
	res, err := c.search(ctx, topic, c.language(lang), knowledge.MaxSearchResults, false)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(res.Query.Search))
	for _, hit := range res.Query.Search {
		if len(titles) == knowledge.MaxSearchResults {
			break
		}
		titles = append(titles, hit.Title)
	}
	return titles, nil
}

// suggest resolves title the way lenient lookups do: the search engine's
// spelling suggestion when it has one, otherwise its best hit.
func (c *Client) suggest(ctx context.Context, title, lang string) (string, error) {
	res, err := c.search(ctx, title, lang, 1, true)
	if err != nil {
		return "", err
	}
	if s := strings.TrimSpace(res.Query.SearchInfo.Suggestion); s != "" {
		return s, nil
	}
	if len(res.Query.Search) > 0 {
		return res.Query.Search[0].Title, nil
	}
	return "", fmt.Errorf("suggest %q: %w", title, knowledge.ErrNotFound)
}

type randomResponse struct {
	Query struct {
		Random []struct {
			Title string `json:"title"`
		} `json:"random"`
	} `json:"query"`
}

// Random returns the title of a random main-namespace article.
func (c *Client) Random(ctx context.Context, lang string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "random")
	params.Set("rnnamespace", "0")
	params.Set("rnlimit", "1")
	var out randomResponse
	if err := c.get(ctx, "random", c.language(lang), params, &out); err != nil {
		return "", err
	}
	if len(out.Query.Random) == 0 {
		return "", errors.New("random: empty response")
	}
	return out.Query.Random[0].Title, nil
}
