package models

import "strings"

// Strategy selects how a knowledge source matches a requested title.
type Strategy string

const (
	// StrategyStrict only accepts the exact title.
	StrategyStrict Strategy = "strict"
	// StrategyLenient lets the source substitute a suggested spelling.
	StrategyLenient Strategy = "lenient"
)

func (s Strategy) Valid() bool {
	return s == StrategyStrict || s == StrategyLenient
}

// Page is one article as returned by a knowledge source.
type Page struct {
	Title        string   `json:"title"`
	Lang         string   `json:"lang,omitempty"`
	Body         string   `json:"body"`
	ImageURLs    []string `json:"image_urls,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
}

// Article is the page chosen for a conversation. Sentences are filled on the
// first pagination access and travel with the session afterwards.
type Article struct {
	Title     string   `json:"title"`
	Lang      string   `json:"lang,omitempty"`
	Strategy  Strategy `json:"strategy"`
	ImageURL  string   `json:"image_url,omitempty"`
	Body      string   `json:"body,omitempty"`
	Sentences []string `json:"sentences,omitempty"`
	Segmented bool     `json:"segmented,omitempty"`
}

// NewArticle builds an Article from page. The image URL is resolved by the
// caller once, here, and never recomputed.
func NewArticle(page *Page, strategy Strategy, imageURL string) *Article {
	return &Article{
		Title:    page.Title,
		Lang:     page.Lang,
		Strategy: strategy,
		ImageURL: imageURL,
		Body:     page.Body,
	}
}

// Display is the payload handed to a display sink.
type Display struct {
	Title       string `json:"title"`
	SummaryText string `json:"summary_text"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Empty reports whether there is nothing worth rendering.
func (d Display) Empty() bool {
	return strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.SummaryText) == ""
}
