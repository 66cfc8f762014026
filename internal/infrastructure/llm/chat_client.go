package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"z-script-ai-api/internal/application/studio"
	"z-script-ai-api/internal/domain/service"
)

// ChatClient 基于 Eino 的模型调用适配器
type ChatClient struct {
	models   ChatModelProvider
	provider string
}

// NewChatClient 创建模型客户端，provider 为空时使用默认提供商
func NewChatClient(models ChatModelProvider, provider string) *ChatClient {
	return &ChatClient{models: models, provider: provider}
}

// Complete 发起一次非流式调用；请求携带工具时绑定后由模型自动选择
func (c *ChatClient) Complete(ctx context.Context, req *studio.CompletionRequest) (*schema.Message, error) {
	if req == nil {
		return nil, errors.New("completion request is nil")
	}
	if c.provider != "" {
		ctx = service.WithProvider(ctx, c.provider)
	}

	base, err := c.models.Get(ctx, c.provider)
	if err != nil {
		return nil, err
	}

	var chat model.BaseChatModel = base
	if len(req.Tools) > 0 {
		bound, err := base.WithTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("bind tools: %w", err)
		}
		chat = bound
	}

	messages := make([]*schema.Message, 0, len(req.History)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, schema.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, req.History...)

	var opts []model.Option
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	out, err := chat.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, classifyError(err)
	}
	return out, nil
}
