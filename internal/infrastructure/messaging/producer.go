package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-script-ai-api/pkg/logger"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// newPromptMessage 构造提示任务消息，携带请求与追踪 ID 便于 worker 侧关联日志
func newPromptMessage(ctx context.Context, job PromptJob) (*Message, error) {
	msg, err := NewMessage(uuid.NewString(), MessageTypePrompt, job.ProjectID, job)
	if err != nil {
		return nil, err
	}
	if v, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		msg.SetMetadata("request_id", v)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		msg.SetMetadata("trace_id", sc.TraceID().String())
	}
	return msg, nil
}

// PublishPrompt 发布提示任务
func (p *Producer) PublishPrompt(ctx context.Context, job PromptJob) (string, error) {
	msg, err := newPromptMessage(ctx, job)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, StreamPrompts, msg)
}

// QueueDispatcher 将提示写入队列，由 prompt-worker 执行编排
type QueueDispatcher struct {
	producer *Producer
}

// NewQueueDispatcher 创建队列调度器
func NewQueueDispatcher(producer *Producer) *QueueDispatcher {
	return &QueueDispatcher{producer: producer}
}

// Dispatch 入队后立即返回
func (d *QueueDispatcher) Dispatch(ctx context.Context, projectID, prompt string) error {
	_, err := d.producer.PublishPrompt(ctx, PromptJob{ProjectID: projectID, Prompt: prompt})
	return err
}
