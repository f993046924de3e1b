package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/tbourn/agency-intake/internal/config"
	"github.com/tbourn/agency-intake/internal/ratelimit"
)

func limitConfig(backend string) config.Config {
	return config.Config{
		IntakeLimit: config.IntakeLimitConfig{
			Max:     2,
			Window:  time.Minute,
			Backend: backend,
			Sweep:   time.Minute,
		},
	}
}

func TestNewCounter_Memory(t *testing.T) {
	c, err := newCounter(context.Background(), limitConfig("memory"))
	if err != nil {
		t.Fatalf("newCounter: %v", err)
	}
	defer c.Close()

	if _, ok := c.(*ratelimit.MemoryCounter); !ok {
		t.Fatalf("got %T; want *ratelimit.MemoryCounter", c)
	}
	for i := 0; i < 2; i++ {
		if d, _ := c.Allow(context.Background(), "1.2.3.4"); !d.Allowed {
			t.Fatalf("attempt %d rejected", i+1)
		}
	}
	if d, _ := c.Allow(context.Background(), "1.2.3.4"); d.Allowed {
		t.Fatalf("third attempt should be rejected")
	}
}

func TestNewCounter_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := limitConfig("redis")
	cfg.Redis = config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:"}

	c, err := newCounter(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newCounter: %v", err)
	}
	defer c.Close()

	if _, ok := c.(*ratelimit.RedisCounter); !ok {
		t.Fatalf("got %T; want *ratelimit.RedisCounter", c)
	}
	d, err := c.Allow(context.Background(), "5.6.7.8")
	if err != nil || !d.Allowed {
		t.Fatalf("first attempt: %+v, %v", d, err)
	}
	if !mr.Exists("test:5.6.7.8") {
		t.Fatalf("expected key in redis, have %v", mr.Keys())
	}
}

func TestNewCounter_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := limitConfig("redis")
	cfg.Redis = config.RedisConfig{Addr: addr}

	if _, err := newCounter(context.Background(), cfg); err == nil {
		t.Fatalf("expected ping error for a closed server")
	}
}

func TestNewCounter_InvalidOptions(t *testing.T) {
	cfg := limitConfig("memory")
	cfg.IntakeLimit.Max = 0
	if _, err := newCounter(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for max=0")
	}
}
