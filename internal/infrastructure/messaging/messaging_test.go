package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"z-script-ai-api/pkg/logger"
)

func TestCalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2}
	cases := map[int]time.Duration{0: time.Second, 1: 2 * time.Second, 2: 4 * time.Second, 3: 5 * time.Second, 10: 5 * time.Second}
	for n, want := range cases {
		if got := cfg.CalculateBackoff(n); got != want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestStreamNames(t *testing.T) {
	if got := StreamPrompts.DLQStream(); got != "dlq:stream:prompts" {
		t.Fatalf("dlq = %q", got)
	}
	if got := GroupWithPrefix("z_script", ConsumerGroupPromptWorker); got != "z_script:cg-prompt-worker" {
		t.Fatalf("group = %q", got)
	}
	if got := GroupWithPrefix("", ConsumerGroupPromptWorker); got != ConsumerGroupPromptWorker {
		t.Fatalf("group = %q", got)
	}
}

func TestNewPromptMessageCarriesRequestID(t *testing.T) {
	ctx := logger.WithContext(context.Background(), logger.RequestIDKey, "req-1")
	msg, err := newPromptMessage(ctx, PromptJob{ProjectID: "p1", Prompt: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != MessageTypePrompt || msg.ProjectID != "p1" || msg.GetMetadata("request_id") != "req-1" {
		t.Fatalf("message = %+v", msg)
	}
	if msg.GetMetadata("trace_id") != "" {
		t.Fatalf("no span in context, trace_id must be absent")
	}
}

func TestDecodeMessageRoundTrip(t *testing.T) {
	msg, _ := NewMessage("m1", MessageTypePrompt, "p1", PromptJob{ProjectID: "p1", Prompt: "x"})
	data, _ := json.Marshal(msg)

	got, err := decodeMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"data": string(data)}})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "m1" || got.ProjectID != "p1" {
		t.Fatalf("decoded = %+v", got)
	}
	if _, err := decodeMessage(redis.XMessage{ID: "2-0", Values: map[string]any{}}); err == nil {
		t.Fatalf("expected error for missing data field")
	}
}

func TestPromptHandler(t *testing.T) {
	var gotProject, gotPrompt string
	handler := PromptHandler(PromptRunnerFunc(func(_ context.Context, projectID, prompt string) {
		gotProject, gotPrompt = projectID, prompt
	}))

	msg, _ := NewMessage("m1", MessageTypePrompt, "p1", PromptJob{Prompt: "write a scene"})
	if err := handler(context.Background(), msg); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if gotProject != "p1" || gotPrompt != "write a scene" {
		t.Fatalf("runner got %q/%q", gotProject, gotPrompt)
	}

	bad := &Message{ID: "m2", Type: MessageTypePrompt, Payload: json.RawMessage(`"oops"`)}
	if err := handler(context.Background(), bad); err == nil {
		t.Fatalf("expected decode error")
	}
}
