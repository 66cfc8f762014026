package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"z-script-ai-api/internal/application/budget"
	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/internal/domain/repository"
	apperrors "z-script-ai-api/pkg/errors"
	"z-script-ai-api/pkg/logger"
	"z-script-ai-api/pkg/metrics"
)

var tracer = otel.Tracer("studio")

const (
	// ImageFailedMessage 图片生成在开始后失败时推送的提示
	ImageFailedMessage = "Image generation failed"
	// VideoFailedMessage 视频生成在开始后失败时推送的提示
	VideoFailedMessage = "Video generation failed"
)

// VideoCostFunc 按时长估算视频费用（美元）
type VideoCostFunc func(durationSeconds int) float64

// ZeroVideoCost 占位生成器不计费
func ZeroVideoCost(int) float64 { return 0 }

// PerSecondVideoCost 按秒计费
func PerSecondVideoCost(rate float64) VideoCostFunc {
	return func(d int) float64 { return rate * float64(d) }
}

// ToolExecutor 执行模型请求的工具调用
// 所有错误都转为文本结果，不会中断编排周期
type ToolExecutor struct {
	elements  repository.ElementRepository
	images    ImageGenerator
	videos    VideoGenerator
	publisher AssetPublisher
	ledger    *budget.Ledger
	sink      EventSink
	videoCost VideoCostFunc
	stamps    *monotonicStamp
	newID     func() string
}

// ExecutorOption 执行器选项
type ExecutorOption func(*ToolExecutor)

// WithVideoCost 替换视频计费函数
func WithVideoCost(fn VideoCostFunc) ExecutorOption {
	return func(x *ToolExecutor) {
		if fn != nil {
			x.videoCost = fn
		}
	}
}

// WithClock 替换资产命名使用的时钟
func WithClock(now func() time.Time) ExecutorOption {
	return func(x *ToolExecutor) {
		x.stamps = &monotonicStamp{now: now}
	}
}

// WithIDGenerator 替换元素 ID 生成
func WithIDGenerator(fn func() string) ExecutorOption {
	return func(x *ToolExecutor) {
		x.newID = fn
	}
}

// NewToolExecutor 创建工具执行器
func NewToolExecutor(
	elements repository.ElementRepository,
	images ImageGenerator,
	videos VideoGenerator,
	publisher AssetPublisher,
	ledger *budget.Ledger,
	sink EventSink,
	opts ...ExecutorOption,
) *ToolExecutor {
	x := &ToolExecutor{
		elements:  elements,
		images:    images,
		videos:    videos,
		publisher: publisher,
		ledger:    ledger,
		sink:      sink,
		videoCost: ZeroVideoCost,
		stamps:    &monotonicStamp{now: time.Now},
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Execute 解析并执行一次模型工具调用，返回交给总结轮次的结果文本
func (x *ToolExecutor) Execute(ctx context.Context, projectID string, tc schema.ToolCall) string {
	call, err := ParseToolCall(tc)
	if err != nil {
		var unknown *UnknownToolError
		if errors.As(err, &unknown) {
			metrics.ToolCallTotal.WithLabelValues("unknown", "invalid").Inc()
			return "Unknown function: " + unknown.Name
		}
		metrics.ToolCallTotal.WithLabelValues(tc.Function.Name, "invalid").Inc()
		logger.Warn(ctx, "tool call rejected", "tool", tc.Function.Name,
			"error_code", apperrors.ErrInvalidParam.Code, "error", err.Error())
		return fmt.Sprintf("%s: %v", failurePrefix(tc.Function.Name), err)
	}
	return x.Run(ctx, projectID, call)
}

// Run 执行已校验的调用
func (x *ToolExecutor) Run(ctx context.Context, projectID string, call ToolCall) string {
	ctx, span := tracer.Start(ctx, "studio.ToolExecutor."+call.ToolName())
	defer span.End()
	span.SetAttributes(attribute.String("project_id", projectID), attribute.String("tool_call_id", call.CallID()))

	var (
		result string
		err    error
	)
	switch c := call.(type) {
	case GenerateImageCall:
		result, err = x.generateImage(ctx, projectID, c)
	case AddScriptElementCall:
		result, err = x.addScriptElement(ctx, projectID, c)
	case GenerateVideoCall:
		result, err = x.generateVideo(ctx, projectID, c)
	default:
		panic(fmt.Sprintf("studio: unhandled tool call %T", call))
	}

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		logger.Warn(ctx, "tool call failed", "tool", call.ToolName(),
			"error_code", toolFailure(call, err).Code, "error", err.Error())
		result = fmt.Sprintf("%s: %v", failurePrefix(call.ToolName()), err)
	}
	metrics.ToolCallTotal.WithLabelValues(call.ToolName(), status).Inc()
	return result
}

// toolFailure 将工具执行失败归类为应用错误
func toolFailure(call ToolCall, err error) *apperrors.AppError {
	switch call.(type) {
	case GenerateImageCall, GenerateVideoCall:
		return apperrors.ErrGenerationFailed.WithError(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.ErrServiceUnavailable.WithError(err)
	}
	return apperrors.Wrap(err, apperrors.CodeDatabaseError, "element store failed")
}

func (x *ToolExecutor) addScriptElement(ctx context.Context, projectID string, c AddScriptElementCall) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	el := entity.NewElement(projectID, c.ElementType, c.Content)
	if err := x.elements.Append(ctx, el); err != nil {
		return "", err
	}
	x.sink.Emit(ctx, projectID, entity.ElementAdded{Element: el})
	return fmt.Sprintf("Script element added successfully: %s", c.ElementType), nil
}

func (x *ToolExecutor) generateImage(ctx context.Context, projectID string, c GenerateImageCall) (string, error) {
	x.sink.Emit(ctx, projectID, entity.InfoEvent{Message: "Generating image..."})

	elementID := x.newID()
	x.sink.Emit(ctx, projectID, entity.GenerationStarted{ElementID: elementID, Type: entity.ElementImage})
	done := false
	defer func() {
		if !done && ctx.Err() == nil {
			x.sink.Emit(ctx, projectID, entity.InfoEvent{Message: ImageFailedMessage})
		}
	}()

	start := time.Now()
	sourceURL, err := x.images.Generate(ctx, c.Description)
	metrics.MediaGenerationDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	if sourceURL == "" {
		return "", errors.New("image generator returned no URL")
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	assetURL, err := x.publisher.Publish(ctx, sourceURL, fmt.Sprintf("image-%d", x.stamps.Next()))
	if err != nil {
		metrics.AssetPublishTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.AssetPublishTotal.WithLabelValues("ok").Inc()

	content := c.SceneContext
	if content == "" {
		content = c.Description
	}
	el := entity.NewAssetElement(projectID, entity.ElementImage, content, assetURL)
	el.ID = elementID
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := x.elements.Append(ctx, el); err != nil {
		return "", err
	}

	done = true
	x.sink.Emit(ctx, projectID, entity.ElementAdded{Element: el})
	x.sink.Emit(ctx, projectID, entity.GenerationCompleted{ElementID: elementID, AssetURL: assetURL})
	return fmt.Sprintf("Image generated and saved successfully. The image shows: %s", c.Description), nil
}

func (x *ToolExecutor) generateVideo(ctx context.Context, projectID string, c GenerateVideoCall) (string, error) {
	cost := x.videoCost(c.Duration)
	if remaining := x.ledger.RemainingDaily(); remaining < cost {
		metrics.BudgetRefusedTotal.Inc()
		return fmt.Sprintf("Cannot generate video: Daily budget limit reached. Remaining: $%.2f, Need: $%.2f", remaining, cost), nil
	}
	if err := x.ledger.Reserve(cost); err != nil {
		return "Cannot generate video: " + err.Error(), nil
	}
	reserved := true
	defer func() {
		if reserved {
			x.ledger.Refund(cost)
		}
	}()

	x.sink.Emit(ctx, projectID, entity.InfoEvent{Message: "Generating video..."})

	elementID := x.newID()
	x.sink.Emit(ctx, projectID, entity.GenerationStarted{ElementID: elementID, Type: entity.ElementVideo})
	done := false
	defer func() {
		if !done && ctx.Err() == nil {
			x.sink.Emit(ctx, projectID, entity.InfoEvent{Message: VideoFailedMessage})
		}
	}()

	start := time.Now()
	res, err := x.videos.Generate(ctx, VideoRequest{ImageURL: c.ImageURL, Description: c.Description, Duration: c.Duration})
	metrics.MediaGenerationDuration.WithLabelValues("video").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	if res == nil || res.URL == "" {
		return "", errors.New("video generator returned no URL")
	}

	// 实际费用与预留不同时按差额调整，超出部分同样须经额度检查
	reserved = false
	charged := x.settleVideoCost(ctx, cost, res.Cost)

	finalURL := res.URL
	placeholder := res.URL == c.ImageURL
	if !placeholder {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		published, perr := x.publisher.Publish(ctx, res.URL, fmt.Sprintf("video-%d", x.stamps.Next()))
		if perr != nil {
			metrics.AssetPublishTotal.WithLabelValues("degraded").Inc()
			logger.Warn(ctx, "video publish failed, using generator URL", "error", perr.Error())
		} else {
			metrics.AssetPublishTotal.WithLabelValues("ok").Inc()
			finalURL = published
		}
	}

	el := entity.NewAssetElement(projectID, entity.ElementVideo, c.Description, finalURL)
	el.ID = elementID
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := x.elements.Append(ctx, el); err != nil {
		return "", err
	}

	done = true
	x.sink.Emit(ctx, projectID, entity.ElementAdded{Element: el})
	x.sink.Emit(ctx, projectID, entity.GenerationCompleted{ElementID: elementID, AssetURL: finalURL})

	remaining := x.ledger.RemainingDaily()
	if placeholder {
		return fmt.Sprintf("Video generated (placeholder mode). Original image returned. Daily budget unchanged: $%.2f", remaining), nil
	}
	return fmt.Sprintf("Video generated and saved successfully. Cost: $%.2f. Daily budget remaining: $%.2f", charged, remaining), nil
}

// settleVideoCost 以实际费用结算预留额度，返回最终计入账本的金额
// 超出预留且额度不足时只计预留部分
func (x *ToolExecutor) settleVideoCost(ctx context.Context, reserved, actual float64) float64 {
	switch {
	case actual < reserved:
		x.ledger.Refund(reserved - actual)
		return actual
	case actual > reserved:
		if err := x.ledger.Reserve(actual - reserved); err != nil {
			metrics.BudgetOverrunTotal.Inc()
			logger.Warn(ctx, "video cost exceeds reservation, charging reserved amount",
				"reserved", reserved, "actual", actual, "error", err.Error())
			return reserved
		}
		return actual
	}
	return reserved
}

// monotonicStamp 生成严格递增的毫秒时间戳，用于资产逻辑名
type monotonicStamp struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func (s *monotonicStamp) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return ms
}
