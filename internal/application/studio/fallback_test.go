package studio

import (
	"strings"
	"testing"
)

func TestFallbackPoolEmbedsPrompt(t *testing.T) {
	for i := 0; i < 3; i++ {
		pool := NewFallbackPool(func(int) int { return i })
		got := pool.Respond("a heist in Lisbon")
		if !strings.Contains(got, `"a heist in Lisbon"`) {
			t.Fatalf("template %d does not quote the prompt: %q", i, got)
		}
	}
}

func TestFallbackPoolClampsPick(t *testing.T) {
	pool := NewFallbackPool(func(n int) int { return n + 4 })
	if pool.Size() != 3 {
		t.Fatalf("size = %d", pool.Size())
	}
	if got, want := pool.Respond("x"), NewFallbackPool(func(int) int { return 0 }).Respond("x"); got != want {
		t.Fatalf("out-of-range pick should use the first template")
	}
}
