package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/wikiask/session"
)

type entry struct {
	ctx       session.Context
	expiresAt time.Time
}

type Store struct {
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

func NewInMemorySessionStore(ttl time.Duration) *Store {
	return &Store{sessions: make(map[string]entry), ttl: ttl, now: time.Now}
}

var _ session.Store = (*Store)(nil)

func (store *Store) EnsureSession(_ context.Context, id string) (session.Context, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	now := store.now()
	if id != "" {
		if e, ok := store.sessions[id]; ok {
			if now.Before(e.expiresAt) {
				e.expiresAt = now.Add(store.ttl)
				store.sessions[id] = e
				return e.ctx.Clone(), nil
			}
			delete(store.sessions, id)
		}
	}
	store.sweep(now)

	c := session.New(uuid.NewString())
	store.sessions[c.ID] = entry{ctx: c, expiresAt: now.Add(store.ttl)}
	return c.Clone(), nil
}

func (store *Store) SaveSession(_ context.Context, c session.Context) error {
	if c.ID == "" {
		return session.ErrMissingID
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	store.sessions[c.ID] = entry{ctx: c.Clone(), expiresAt: store.now().Add(store.ttl)}
	return nil
}

func (store *Store) DropSession(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.sessions, id)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (store *Store) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.sessions)
}

func (store *Store) sweep(now time.Time) {
	for id, e := range store.sessions {
		if !now.Before(e.expiresAt) {
			delete(store.sessions, id)
		}
	}
}
