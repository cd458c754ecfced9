package redis

import (
	"testing"
	"time"

	"github.com/greentradehq/greentrade-backend/pkg/config"
)

func configRedis(url, addr string) config.RedisConfig {
	return config.RedisConfig{URL: url, Address: addr}
}

func TestBuildKeyNamespacing(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if got := c.IdempotencyKey("buyer|POST|/api/v1/checkout", "abc"); got != "gt:idempotency:buyer|POST|/api/v1/checkout:abc" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := c.RateLimitKey("checkout"); got != "gt:rate_limit:checkout" {
		t.Fatalf("unexpected rate limit key %q", got)
	}
	if got := c.LockKey("cron"); got != "gt:lock:cron" {
		t.Fatalf("unexpected lock key %q", got)
	}
	if got := c.buildKey("a", "", "b"); got != "gt:a:b" {
		t.Fatalf("expected empty parts skipped, got %q", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	t.Parallel()

	if _, err := optionsFromConfig(configRedis("", "")); err == nil {
		t.Fatal("expected error without url or address")
	}

	opts, err := optionsFromConfig(configRedis("", "localhost:6379"))
	if err != nil {
		t.Fatalf("address config: %v", err)
	}
	if opts.Addr != "localhost:6379" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}

	opts, err = optionsFromConfig(configRedis("redis://:pw@cache:6380/2", ""))
	if err != nil {
		t.Fatalf("url config: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 2 {
		t.Fatalf("unexpected parsed options %+v", opts)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	t.Parallel()

	var c Client
	if err := c.Set(t.Context(), "k", "v", time.Minute); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := c.Get(t.Context(), "k"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}
