package redis_session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mohammad-safakhou/wikiask/models"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := c.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	client := startRedis(t)
	store := NewWithClient(client, time.Minute)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	c, err := store.EnsureSession(ctx, "")
	if err != nil || c.ID == "" {
		t.Fatalf("EnsureSession: %+v, %v", c, err)
	}

	article := &models.Article{Title: "Earth", Strategy: models.StrategyStrict, Sentences: []string{"a.", "b.", "c."}, Segmented: true}
	if err := store.SaveSession(ctx, c.WithArticle(article, 2)); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := store.SaveSession(ctx, c.WithArticle(&models.Article{Title: "Moon"}, 1)); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := store.EnsureSession(ctx, c.ID)
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if got.ID != c.ID || got.Active == nil || got.Active.Article.Title != "Moon" || got.Active.Spoken != 1 {
		t.Fatalf("expected the last write, got %+v", got.Active)
	}

	ttl, err := client.TTL(ctx, contextKey(c.ID)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v, %v", ttl, err)
	}

	if err := store.DropSession(ctx, c.ID); err != nil {
		t.Fatalf("DropSession: %v", err)
	}
	fresh, err := store.EnsureSession(ctx, c.ID)
	if err != nil || fresh.ID == c.ID {
		t.Fatalf("expected a new session after drop, got %+v, %v", fresh, err)
	}
}
