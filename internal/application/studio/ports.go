// Package studio 实现剧本协作的会话编排：模型调用、工具执行、重试降级与实时事件
package studio

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"z-script-ai-api/internal/domain/entity"
)

// CompletionRequest 一次模型调用
// Tools 为空时本轮不向模型提供工具
type CompletionRequest struct {
	SystemPrompt string
	History      []*schema.Message
	Tools        []*schema.ToolInfo
	MaxTokens    int
}

// ModelClient 语言模型客户端
// 限流类错误需包裹 service.ErrRateLimited，其余错误视为不可重试
type ModelClient interface {
	Complete(ctx context.Context, req *CompletionRequest) (*schema.Message, error)
}

// ImageGenerator 图像生成
type ImageGenerator interface {
	Generate(ctx context.Context, description string) (string, error)
}

// VideoRequest 视频生成参数
type VideoRequest struct {
	ImageURL    string
	Description string
	Duration    int
}

// VideoResult 视频生成结果
type VideoResult struct {
	URL  string
	Cost float64
}

// VideoGenerator 图生视频
type VideoGenerator interface {
	Generate(ctx context.Context, req VideoRequest) (*VideoResult, error)
}

// AssetPublisher 将临时地址转存为持久地址，同一 logicalName 幂等
type AssetPublisher interface {
	Publish(ctx context.Context, sourceURL, logicalName string) (string, error)
}

// EventSink 向项目的当前订阅者推送事件，尽力而为
type EventSink interface {
	Emit(ctx context.Context, projectID string, ev entity.StudioEvent)
}

// PromptDispatcher 接收用户提示并安排一次编排周期
type PromptDispatcher interface {
	Dispatch(ctx context.Context, projectID, prompt string) error
}
