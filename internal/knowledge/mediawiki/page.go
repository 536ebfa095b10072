package mediawiki

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/models"
)

type pageResponse struct {
	Query struct {
		Pages []struct {
			Title     string            `json:"title"`
			Missing   bool              `json:"missing"`
			Invalid   bool              `json:"invalid"`
			Extract   string            `json:"extract"`
			PageProps map[string]string `json:"pageprops"`
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// GetPage fetches title. With the lenient strategy the title is first passed
// through the search engine's suggestion, which recovers misspellings at the
// price of occasionally landing on a different article.
func (c *Client) GetPage(ctx context.Context, title string, strategy models.Strategy, lang string) (*models.Page, error) {
	lang = c.language(lang)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, knowledge.ErrNotFound
	}
	if strategy == models.StrategyLenient {
		suggested, err := c.suggest(ctx, title, lang)
		if err != nil {
			return nil, err
		}
		title = suggested
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("redirects", "1")
	params.Set("prop", "extracts|pageprops|pageimages")
	params.Set("explaintext", "1")
	params.Set("exsectionformat", "wiki")
	if c.introOnly {
		params.Set("exintro", "1")
	}
	params.Set("ppprop", "disambiguation")
	params.Set("piprop", "thumbnail")
	params.Set("pithumbsize", "500")
	var out pageResponse
	if err := c.get(ctx, "page", lang, params, &out); err != nil {
		return nil, err
	}
	if len(out.Query.Pages) == 0 {
		return nil, fmt.Errorf("page %q: %w", title, knowledge.ErrNotFound)
	}
	p := out.Query.Pages[0]
	if p.Missing || p.Invalid {
		return nil, fmt.Errorf("page %q: %w", title, knowledge.ErrNotFound)
	}

	if _, ok := p.PageProps["disambiguation"]; ok {
		options, err := c.disambiguationOptions(ctx, p.Title, lang)
		if err != nil {
			return nil, err
		}
		return nil, &knowledge.AmbiguousError{Title: p.Title, Options: options}
	}

	page := &models.Page{Title: p.Title, Lang: lang, Body: p.Extract}
	if p.Thumbnail != nil {
		page.ThumbnailURL = p.Thumbnail.Source
	}
	if strings.TrimSpace(page.Body) == "" {
		text, err := c.renderedText(ctx, p.Title, lang)
		if err != nil {
			if knowledge.IsUnavailable(err) {
				return nil, err
			}
			c.logger.Warn("rendered text fallback failed", zap.String("title", p.Title), zap.Error(err))
		}
		page.Body = text
	}
	images, err := c.images(ctx, p.Title, lang)
	if err != nil {
		c.logger.Debug("image listing failed", zap.String("title", p.Title), zap.Error(err))
	}
	page.ImageURLs = images
	return page, nil
}

type parseResponse struct {
	Parse struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"parse"`
}

func (c *Client) renderedHTML(ctx context.Context, title, lang string) (string, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", title)
	params.Set("prop", "text")
	params.Set("redirects", "1")
	params.Set("disableeditsection", "1")
	var out parseResponse
	if err := c.get(ctx, "parse", lang, params, &out); err != nil {
		return "", err
	}
	return out.Parse.Text, nil
}

// renderedText is used on wikis without the TextExtracts extension: the parsed
// HTML is reduced to its readable text.
func (c *Client) renderedText(ctx context.Context, title, lang string) (string, error) {
	html, err := c.renderedHTML(ctx, title, lang)
	if err != nil {
		return "", err
	}
	pageURL, _ := url.Parse(c.endpoint(lang))
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability %q: %w", title, err)
	}
	return strings.TrimSpace(article.TextContent), nil
}

// disambiguationOptions lists the articles a disambiguation page points to,
// in page order. Table-of-contents entries and links to missing pages are
// skipped.
func (c *Client) disambiguationOptions(ctx context.Context, title, lang string) ([]string, error) {
	html, err := c.renderedHTML(ctx, title, lang)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("disambiguation %q: %w", title, err)
	}
	seen := map[string]struct{}{}
	var options []string
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		if class, _ := li.Attr("class"); strings.Contains(class, "tocsection") {
			return
		}
		a := li.Find("a").First()
		if a.Length() == 0 || a.HasClass("new") {
			return
		}
		name, ok := a.Attr("title")
		if !ok || strings.TrimSpace(name) == "" {
			name = a.Text()
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		options = append(options, name)
	})
	return options, nil
}

type imagesResponse struct {
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			ImageInfo []struct {
				URL string `json:"url"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

func (c *Client) images(ctx context.Context, title, lang string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "images")
	params.Set("titles", title)
	params.Set("gimlimit", "20")
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url")
	var out imagesResponse
	if err := c.get(ctx, "images", lang, params, &out); err != nil {
		return nil, err
	}
	var urls []string
	for _, p := range out.Query.Pages {
		for _, info := range p.ImageInfo {
			if info.URL != "" {
				urls = append(urls, info.URL)
			}
		}
	}
	return urls, nil
}
