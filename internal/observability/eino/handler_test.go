package eino

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
)

func TestElapsedSeconds(t *testing.T) {
	if got := elapsedSeconds(context.Background()); got != 0 {
		t.Fatalf("elapsed without start = %v", got)
	}
	ctx := context.WithValue(context.Background(), startTimeKey{}, time.Now().Add(-time.Second))
	if got := elapsedSeconds(ctx); got < 1 {
		t.Fatalf("elapsed = %v, want >= 1", got)
	}
}

func TestModelNames(t *testing.T) {
	if modelNameFromInput(nil) != "" || modelNameFromOutput(&model.CallbackOutput{}) != "" {
		t.Fatalf("missing config must yield empty model name")
	}
	in := &model.CallbackInput{Config: &model.Config{Model: "gpt-4"}}
	if got := modelNameFromInput(in); got != "gpt-4" {
		t.Fatalf("model = %q", got)
	}
}
