package session

import (
	"context"
	"errors"
	"time"

	"github.com/mohammad-safakhou/wikiask/models"
)

// Store interface for conversation context persistence. Saving replaces the
// stored context wholesale: the last write wins and nothing is merged.
type Store interface {
	// EnsureSession returns the context stored under id, or a fresh one with
	// a new id when id is empty, unknown or expired.
	EnsureSession(ctx context.Context, id string) (Context, error)
	SaveSession(ctx context.Context, c Context) error
	DropSession(ctx context.Context, id string) error
}

type StoreType string

const (
	InMemoryStore StoreType = "inmemory"
	RedisStore    StoreType = "redis"
)

var ErrMissingID = errors.New("session id is required")

// Context is the state carried from one turn of a conversation to the next.
// Turn handlers take a Context and return the one to store.
type Context struct {
	ID        string         `json:"id"`
	Lang      string         `json:"lang,omitempty"`
	Active    *ActiveArticle `json:"active,omitempty"`
	Pending   *Pending       `json:"pending,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ActiveArticle is the article being read and how many of its sentences have
// been spoken.
type ActiveArticle struct {
	Article models.Article `json:"article"`
	Spoken  int            `json:"spoken"`
}

// Pending is a disambiguation question waiting for the user's answer.
type Pending struct {
	Topic   string   `json:"topic"`
	Options []string `json:"options"`
	Round   int      `json:"round"`
}

func New(id string) Context {
	return Context{ID: id, UpdatedAt: time.Now().UTC()}
}

func (c Context) HasArticle() bool { return c.Active != nil }

// WithArticle makes a the active article, replacing any previous one, and
// drops a pending question.
func (c Context) WithArticle(a *models.Article, spoken int) Context {
	c.Active = &ActiveArticle{Article: *a, Spoken: spoken}
	c.Pending = nil
	c.UpdatedAt = time.Now().UTC()
	return c
}

// WithSpoken moves the cursor of the active article.
func (c Context) WithSpoken(spoken int) Context {
	if c.Active == nil {
		return c
	}
	active := *c.Active
	active.Spoken = spoken
	c.Active = &active
	c.UpdatedAt = time.Now().UTC()
	return c
}

// WithPending records an open question. The active article is dropped.
func (c Context) WithPending(p Pending) Context {
	p.Options = append([]string(nil), p.Options...)
	c.Active = nil
	c.Pending = &p
	c.UpdatedAt = time.Now().UTC()
	return c
}

// Cleared forgets the active article and any pending question.
func (c Context) Cleared() Context {
	c.Active = nil
	c.Pending = nil
	c.UpdatedAt = time.Now().UTC()
	return c
}

// Clone returns a deep copy that shares no memory with c.
func (c Context) Clone() Context {
	if c.Active != nil {
		active := *c.Active
		active.Article.Sentences = append([]string(nil), c.Active.Article.Sentences...)
		c.Active = &active
	}
	if c.Pending != nil {
		p := *c.Pending
		p.Options = append([]string(nil), c.Pending.Options...)
		c.Pending = &p
	}
	return c
}
