package redis_session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/wikiask/session"
)

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ session.Store = (*Store)(nil)

func NewRedisSessionStore(addr, password string, db int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewWithClient(rdb, ttl)
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func contextKey(id string) string {
	return fmt.Sprintf("session:%s:context", id)
}

// Ping checks that the server is reachable.
func (store *Store) Ping(ctx context.Context) error {
	return store.client.Ping(ctx).Err()
}

func (store *Store) Close() error {
	return store.client.Close()
}

func (store *Store) EnsureSession(ctx context.Context, id string) (session.Context, error) {
	if id != "" {
		key := contextKey(id)
		raw, err := store.client.GetEx(ctx, key, store.ttl).Bytes()
		switch {
		case err == nil:
			var c session.Context
			if err := json.Unmarshal(raw, &c); err != nil {
				return session.Context{}, fmt.Errorf("decode session %s: %w", id, err)
			}
			c.ID = id
			return c, nil
		case !errors.Is(err, redis.Nil):
			return session.Context{}, fmt.Errorf("load session %s: %w", id, err)
		}
	}
	c := session.New(uuid.NewString())
	if err := store.SaveSession(ctx, c); err != nil {
		return session.Context{}, err
	}
	return c, nil
}

func (store *Store) SaveSession(ctx context.Context, c session.Context) error {
	if c.ID == "" {
		return session.ErrMissingID
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", c.ID, err)
	}
	if err := store.client.Set(ctx, contextKey(c.ID), raw, store.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", c.ID, err)
	}
	return nil
}

func (store *Store) DropSession(ctx context.Context, id string) error {
	if err := store.client.Del(ctx, contextKey(id)).Err(); err != nil {
		return fmt.Errorf("drop session %s: %w", id, err)
	}
	return nil
}
