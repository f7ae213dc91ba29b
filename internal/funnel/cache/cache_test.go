package cache

import (
	"context"
	"testing"
	"time"

	"funil_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, time.Minute, logger.New("test")), mr
}

type payload struct {
	Total int `json:"total"`
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key := Key("unit-1", "from=2026-08-01&to=2026-08-31")
	if err := c.Set(ctx, key, payload{Total: 7}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	hit, err := c.Get(ctx, key, &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit || got.Total != 7 {
		t.Fatalf("hit=%v got=%+v, want hit with total 7", hit, got)
	}
}

func TestCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var got payload
	hit, err := c.Get(context.Background(), Key("unit-1", "q"), &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Fatal("expected a miss for an unknown key")
	}
}

func TestCacheInvalidateScopePrefix(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	unitKey := Key("unit-1", "a")
	otherKey := Key("unit-2", "a")
	if err := c.Set(ctx, unitKey, payload{Total: 1}); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, otherKey, payload{Total: 2}); err != nil {
		t.Fatal(err)
	}

	if err := c.Invalidate(ctx, "unit-1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	var got payload
	if hit, _ := c.Get(ctx, unitKey, &got); hit {
		t.Error("unit-1 entry must be gone")
	}
	if hit, _ := c.Get(ctx, otherKey, &got); !hit {
		t.Error("unit-2 entry must survive a unit-1 invalidation")
	}
}

func TestCacheInvalidateAll(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for _, scope := range []string{"unit-1", "unit-2"} {
		if err := c.Set(ctx, Key(scope, "q"), payload{}); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Invalidate(ctx, ScopeAll); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	var got payload
	for _, scope := range []string{"unit-1", "unit-2"} {
		if hit, _ := c.Get(ctx, Key(scope, "q"), &got); hit {
			t.Errorf("%s entry must be gone after a full invalidation", scope)
		}
	}
}

func TestKeyCanonical(t *testing.T) {
	if Key("unit-1", "q") != Key("unit-1", "q") {
		t.Fatal("identical queries must share a key")
	}
	if Key("unit-1", "q") == Key("unit-1", "other") {
		t.Fatal("different queries must not collide")
	}
}
