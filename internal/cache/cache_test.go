package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, time.Minute, zerolog.Nop()), mr
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestCache(t)
	defer c.Close()

	_, found, err := c.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("missing key is not an error: %v", err)
	}
	if found {
		t.Fatal("missing key must report not found")
	}
}

func TestPutSurvivesTTLWindow(t *testing.T) {
	c, mr := newTestCache(t)
	defer c.Close()
	ctx := context.Background()

	if err := c.Put(ctx, "https://alerts.cache/freezer-temp-alert", `{"active":true}`); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	mr.FastForward(24 * time.Hour)

	value, found, err := c.Get(ctx, "https://alerts.cache/freezer-temp-alert")
	if err != nil || !found {
		t.Fatalf("alert state must never expire: found=%v err=%v", found, err)
	}
	if value != `{"active":true}` {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestPutTTLExpires(t *testing.T) {
	c, mr := newTestCache(t)
	defer c.Close()
	ctx := context.Background()

	if err := c.PutTTL(ctx, "proxycache:http://upstream/page", "body"); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if _, found, _ := c.Get(ctx, "proxycache:http://upstream/page"); !found {
		t.Fatal("fresh entry must be readable")
	}

	mr.FastForward(2 * time.Minute)

	if _, found, _ := c.Get(ctx, "proxycache:http://upstream/page"); found {
		t.Fatal("response cache entry must expire after the TTL")
	}
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(t)
	defer c.Close()
	ctx := context.Background()

	if err := c.Put(ctx, "key", "value"); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, found, _ := c.Get(ctx, "key"); found {
		t.Fatal("deleted key must be gone")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("deleting a missing key is not an error: %v", err)
	}
}
