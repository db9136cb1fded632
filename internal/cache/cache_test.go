package cache

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Machine string  `json:"machine"`
	AvgOEE  float64 `json:"avg_oee"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	ctx := context.Background()

	in := payload{Machine: "M1", AvgOEE: 0.87}
	if err := c.Set(ctx, "kpis:M1", in, 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var out payload
	if !c.Get(ctx, "kpis:M1", &out) {
		t.Fatal("expected cache hit")
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	var out payload
	if c.Get(context.Background(), "absent", &out) {
		t.Fatal("expected cache miss")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	ctx := context.Background()

	if err := c.Set(ctx, "k", payload{Machine: "M1"}, time.Nanosecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var out payload
	if c.Get(ctx, "k", &out) {
		t.Fatal("expected expired entry to miss")
	}
}

func TestMemoryCache_Flush(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	ctx := context.Background()

	_ = c.Set(ctx, "a", payload{Machine: "M1"}, 0)
	_ = c.Set(ctx, "b", payload{Machine: "M2"}, 0)
	c.Flush(ctx)

	var out payload
	if c.Get(ctx, "a", &out) || c.Get(ctx, "b", &out) {
		t.Fatal("expected empty cache after flush")
	}
}

func TestBackendName(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	if c.Backend() != "memory" {
		t.Fatalf("expected memory backend, got %q", c.Backend())
	}
	var nilCache *Cache
	if nilCache.Backend() != "disabled" {
		t.Fatalf("expected disabled backend for nil cache")
	}
}
