package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"z-script-ai-api/internal/application/studio"
	"z-script-ai-api/internal/domain/service"
)

type fakeChatModel struct {
	tools    []*schema.ToolInfo
	messages []*schema.Message
	optCount int
	reply    *schema.Message
	err      error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.messages = input
	f.optCount = len(opts)
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func (f *fakeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	f.tools = tools
	return f, nil
}

type staticProvider struct {
	m   *fakeChatModel
	err error
}

func (p staticProvider) Get(context.Context, string) (model.ToolCallingChatModel, error) {
	return p.m, p.err
}

func TestChatClientCompleteBindsToolsAndSystemPrompt(t *testing.T) {
	m := &fakeChatModel{reply: schema.AssistantMessage("ok", nil)}
	c := NewChatClient(staticProvider{m: m}, "openai")

	out, err := c.Complete(context.Background(), &studio.CompletionRequest{
		SystemPrompt: "be a screenwriter",
		History:      []*schema.Message{schema.UserMessage("hi")},
		Tools:        studio.ToolPalette(),
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Content != "ok" {
		t.Fatalf("content = %q", out.Content)
	}
	if len(m.tools) != 3 {
		t.Fatalf("bound tools = %d", len(m.tools))
	}
	if len(m.messages) != 2 || m.messages[0].Role != schema.System || m.messages[1].Content != "hi" {
		t.Fatalf("messages = %+v", m.messages)
	}
	if m.optCount != 0 {
		t.Fatalf("no options expected without MaxTokens")
	}
}

func TestChatClientCompleteFollowUp(t *testing.T) {
	m := &fakeChatModel{reply: schema.AssistantMessage("summary", nil)}
	c := NewChatClient(staticProvider{m: m}, "")

	if _, err := c.Complete(context.Background(), &studio.CompletionRequest{
		History:   []*schema.Message{schema.UserMessage("hi")},
		MaxTokens: 1000,
	}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if m.tools != nil {
		t.Fatalf("follow-up must not bind tools")
	}
	if m.optCount != 1 {
		t.Fatalf("options = %d, want 1", m.optCount)
	}
}

func TestChatClientMarksRateLimit(t *testing.T) {
	m := &fakeChatModel{err: errors.New("error, status code: 429, message: Rate limit reached")}
	c := NewChatClient(staticProvider{m: m}, "openai")

	_, err := c.Complete(context.Background(), &studio.CompletionRequest{History: []*schema.Message{schema.UserMessage("x")}})
	if !service.IsRateLimited(err) {
		t.Fatalf("err = %v, want rate limited", err)
	}
}

func TestIsRateLimitError(t *testing.T) {
	cases := map[string]bool{
		"status code: 429":                   true,
		"exceeded quota, insufficient_quota": true,
		"rate_limit_exceeded":                true,
		"Too Many Requests":                  true,
		"invalid_api_key":                    false,
		"context deadline exceeded":          false,
	}
	for msg, want := range cases {
		if got := IsRateLimitError(errors.New(msg)); got != want {
			t.Errorf("IsRateLimitError(%q) = %v, want %v", msg, got, want)
		}
	}
	if IsRateLimitError(nil) {
		t.Errorf("nil must not be a rate limit")
	}
}
