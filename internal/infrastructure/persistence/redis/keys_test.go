package redis

import (
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestPromptRateLimitKey(t *testing.T) {
	if got := PromptRateLimitKey("p-1"); got != "ratelimit:prompts:p-1" {
		t.Fatalf("key = %q", got)
	}
}

func TestIsNil(t *testing.T) {
	if !IsNil(redis.Nil) || !IsNil(fmt.Errorf("get: %w", redis.Nil)) {
		t.Fatalf("redis.Nil must be recognised through wrapping")
	}
	if IsNil(fmt.Errorf("boom")) {
		t.Fatalf("unexpected nil match")
	}
}

func TestCacheKeyPrefix(t *testing.T) {
	c := NewCache(nil, "asset:")
	if got := c.key("image-1"); got != "asset:image-1" {
		t.Fatalf("key = %q", got)
	}
}
