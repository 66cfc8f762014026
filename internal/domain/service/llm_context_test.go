package service

import (
	"context"
	"testing"
)

func TestStageProviderLabels(t *testing.T) {
	ctx := context.Background()
	if got := StageFromContext(ctx); got != "unknown" {
		t.Fatalf("stage = %q", got)
	}

	ctx = WithStageProvider(ctx, StageFollowUp, " openai ")
	if got := StageFromContext(ctx); got != StageFollowUp {
		t.Fatalf("stage = %q", got)
	}
	if got := ProviderFromContext(ctx); got != "openai" {
		t.Fatalf("provider = %q", got)
	}

	if got := ProviderFromContext(WithProvider(ctx, "  ")); got != "openai" {
		t.Fatalf("blank provider should keep previous value, got %q", got)
	}
}
