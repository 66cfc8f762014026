package studio

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/internal/domain/repository"
	"z-script-ai-api/internal/domain/service"
	"z-script-ai-api/pkg/logger"
	"z-script-ai-api/pkg/metrics"
)

// DefaultSystemPrompt 首轮与总结轮共用的系统指令
const DefaultSystemPrompt = `You are an AI assistant helping to create video scripts and visual content. You can:
1. Write screenplay-formatted scripts with proper scene headings, action lines, character names, and dialogue
2. Generate images for scene visualization using the generate_image function
3. Add formatted script elements using the add_script_element function
4. Animate a generated image into a short video using the generate_video function

When users ask for images or visual content, use the generate_image function with detailed, cinematic descriptions.
When writing scripts, use the add_script_element function to properly format and structure the content.
Always be creative and detailed in your descriptions and script writing.`

const (
	emptyReplyText    = "No response generated."
	emptySummaryText  = "Action completed successfully."
	emptyPromptReason = "prompt must not be empty"
)

// Outcome 一次周期的结局
type Outcome string

const (
	OutcomeReply    Outcome = "reply"
	OutcomeTools    Outcome = "tools"
	OutcomeFallback Outcome = "fallback"
	OutcomeError    Outcome = "error"
	OutcomeCanceled Outcome = "canceled"
)

// OrchestratorConfig 编排参数
type OrchestratorConfig struct {
	SystemPrompt      string
	Retry             RetryPolicy
	FollowUpMaxTokens int
}

// Orchestrator 将一条用户提示转化为模型调用、工具执行、持久化与实时事件
type Orchestrator struct {
	cfg      OrchestratorConfig
	turns    repository.ConversationTurnRepository
	model    ModelClient
	tools    *ToolExecutor
	sink     EventSink
	fallback *FallbackPool
	sleeper  Sleeper
	locks    *projectLocks
}

// OrchestratorOption 编排器选项
type OrchestratorOption func(*Orchestrator)

// WithSleeper 注入重试等待实现
func WithSleeper(s Sleeper) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sleeper = s
	}
}

// WithFallbackPool 注入降级回复池
func WithFallbackPool(p *FallbackPool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.fallback = p
	}
}

// NewOrchestrator 创建编排器
func NewOrchestrator(
	cfg OrchestratorConfig,
	turns repository.ConversationTurnRepository,
	model ModelClient,
	tools *ToolExecutor,
	sink EventSink,
	opts ...OrchestratorOption,
) *Orchestrator {
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = DefaultRetryPolicy
	}
	o := &Orchestrator{
		cfg:      cfg,
		turns:    turns,
		model:    model,
		tools:    tools,
		sink:     sink,
		fallback: NewFallbackPool(nil),
		sleeper:  TimerSleeper,
		locks:    newProjectLocks(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandlePrompt 运行一次完整周期。失败以事件或降级回复的形式结束，不向调用方返回错误
func (o *Orchestrator) HandlePrompt(ctx context.Context, projectID, prompt string) Outcome {
	ctx = logger.WithProject(ctx, projectID)
	ctx = logger.WithContext(ctx, logger.CycleIDKey, uuid.NewString())
	ctx, span := tracer.Start(ctx, "studio.Orchestrator.HandlePrompt")
	defer span.End()
	span.SetAttributes(attribute.String("project_id", projectID))

	start := time.Now()
	outcome := o.run(ctx, projectID, prompt)

	span.SetAttributes(attribute.String("outcome", string(outcome)))
	metrics.CycleTotal.WithLabelValues(string(outcome)).Inc()
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
	logger.Info(ctx, "prompt cycle finished", "outcome", outcome, "duration_ms", time.Since(start).Milliseconds())
	return outcome
}

func (o *Orchestrator) run(ctx context.Context, projectID, prompt string) Outcome {
	if strings.TrimSpace(prompt) == "" {
		return o.fail(ctx, projectID, errors.New(emptyPromptReason))
	}

	unlock, err := o.locks.Lock(ctx, projectID)
	if err != nil {
		return o.fail(ctx, projectID, err)
	}
	defer unlock()

	if err := o.turns.Append(ctx, entity.NewConversationTurn(projectID, entity.RoleUser, prompt)); err != nil {
		return o.fail(ctx, projectID, err)
	}

	history, err := o.turns.ListByProject(ctx, projectID)
	if err != nil {
		return o.fail(ctx, projectID, err)
	}
	messages := buildHistory(history)

	first := RunWithRetry(ctx, o.cfg.Retry, o.sleeper, func(ctx context.Context) (*schema.Message, error) {
		ctx = service.WithStage(ctx, service.StageToolSelection)
		return o.model.Complete(ctx, &CompletionRequest{
			SystemPrompt: o.cfg.SystemPrompt,
			History:      messages,
			Tools:        ToolPalette(),
		})
	})

	switch first.State {
	case StateDegraded:
		logger.Warn(ctx, "model rate limited, falling back", "attempts", first.Attempts)
		return o.degrade(ctx, projectID, prompt)
	case StateFailed:
		return o.fail(ctx, projectID, first.Err)
	}

	reply := first.Value
	if reply == nil {
		return o.fail(ctx, projectID, errors.New("model returned no message"))
	}
	if len(reply.ToolCalls) == 0 {
		text := reply.Content
		if strings.TrimSpace(text) == "" {
			text = emptyReplyText
		}
		if err := o.turns.Append(ctx, entity.NewConversationTurn(projectID, entity.RoleAssistant, text)); err != nil {
			return o.fail(ctx, projectID, err)
		}
		o.sink.Emit(ctx, projectID, entity.TextChunk{Content: text})
		return OutcomeReply
	}

	return o.runTools(ctx, projectID, messages, reply)
}

// runTools 顺序执行工具调用后发起不带工具的总结调用
func (o *Orchestrator) runTools(ctx context.Context, projectID string, messages []*schema.Message, reply *schema.Message) Outcome {
	followUp := make([]*schema.Message, 0, len(messages)+1+len(reply.ToolCalls))
	followUp = append(followUp, messages...)
	followUp = append(followUp, schema.AssistantMessage(reply.Content, reply.ToolCalls))

	records := make([]entity.ToolCallRecord, 0, len(reply.ToolCalls))
	for _, tc := range reply.ToolCalls {
		if err := ctx.Err(); err != nil {
			return o.fail(ctx, projectID, err)
		}
		result := o.tools.Execute(ctx, projectID, tc)
		followUp = append(followUp, schema.ToolMessage(result, tc.ID))
		records = append(records, entity.ToolCallRecord{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}

	if err := ctx.Err(); err != nil {
		return o.fail(ctx, projectID, err)
	}
	summary, err := o.model.Complete(service.WithStage(ctx, service.StageFollowUp), &CompletionRequest{
		SystemPrompt: o.cfg.SystemPrompt,
		History:      followUp,
		MaxTokens:    o.cfg.FollowUpMaxTokens,
	})
	if err != nil {
		return o.fail(ctx, projectID, err)
	}

	text := ""
	if summary != nil {
		text = summary.Content
	}
	if strings.TrimSpace(text) == "" {
		text = emptySummaryText
	}
	turn := entity.NewConversationTurn(projectID, entity.RoleAssistant, text)
	turn.ToolCalls = records
	if err := o.turns.Append(ctx, turn); err != nil {
		return o.fail(ctx, projectID, err)
	}
	o.sink.Emit(ctx, projectID, entity.TextChunk{Content: text})
	return OutcomeTools
}

func (o *Orchestrator) degrade(ctx context.Context, projectID, prompt string) Outcome {
	text := o.fallback.Respond(prompt)
	if err := o.turns.Append(ctx, entity.NewConversationTurn(projectID, entity.RoleAssistant, text)); err != nil {
		return o.fail(ctx, projectID, err)
	}
	o.sink.Emit(ctx, projectID, entity.TextChunk{Content: text})
	o.sink.Emit(ctx, projectID, entity.InfoEvent{Message: DegradedModeMessage})
	return OutcomeFallback
}

// fail 结束周期；调用方取消时不再推送事件
func (o *Orchestrator) fail(ctx context.Context, projectID string, err error) Outcome {
	if ctx.Err() != nil {
		logger.Warn(ctx, "prompt cycle canceled", "error", err.Error())
		return OutcomeCanceled
	}
	logger.Error(ctx, "prompt cycle failed", err)
	o.sink.Emit(ctx, projectID, entity.ErrorEvent{Message: GenericFailureMessage})
	return OutcomeError
}

// buildHistory 将持久化轮次映射为模型上下文：assistant 保持，其余一律作为 user
func buildHistory(turns []*entity.ConversationTurn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		if t.Role == entity.RoleAssistant {
			out = append(out, schema.AssistantMessage(t.Content, nil))
			continue
		}
		out = append(out, schema.UserMessage(t.Content))
	}
	return out
}
