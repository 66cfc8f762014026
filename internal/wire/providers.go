// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"os"
	"time"

	"z-script-ai-api/internal/application/budget"
	"z-script-ai-api/internal/application/studio"
	"z-script-ai-api/internal/config"
	"z-script-ai-api/internal/domain/repository"
	"z-script-ai-api/internal/infrastructure/llm"
	"z-script-ai-api/internal/infrastructure/media"
	"z-script-ai-api/internal/infrastructure/messaging"
	"z-script-ai-api/internal/infrastructure/persistence/postgres"
	"z-script-ai-api/internal/infrastructure/persistence/redis"
	"z-script-ai-api/internal/infrastructure/realtime"
	"z-script-ai-api/internal/interfaces/http/handler"
	"z-script-ai-api/internal/interfaces/http/middleware"
	"z-script-ai-api/internal/interfaces/http/router"
	"z-script-ai-api/pkg/logger"
)

// App API 网关运行所需的组件
type App struct {
	Router *router.Router
	Hub    *realtime.Hub
	// Bus 非空时需在后台运行 Bus.Relay(ctx, Hub)
	Bus    *realtime.RedisBus
}

// Worker prompt-worker 运行所需的组件
type Worker struct {
	Orchestrator *studio.Orchestrator
	Consumer     *messaging.Consumer
}

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient    *postgres.Client
	TxManager   *postgres.TxManager
	UserRepo    *postgres.UserRepository
	ProjectRepo *postgres.ProjectRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres, cfg.Observability.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideCache 以应用名作为键前缀
func ProvideCache(cfg *config.Config, client *redis.Client) *redis.Cache {
	return redis.NewCache(client, cfg.App.Name)
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	return messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
}

// ProvidePromptConsumer 提供提示队列消费者
func ProvidePromptConsumer(redisClient *redis.Client, cfg *config.Config) *messaging.Consumer {
	rs := cfg.Messaging.RedisStream
	return messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamPrompts,
		Group:         messaging.GroupWithPrefix(rs.ConsumerGroupPrefix, messaging.ConsumerGroupPromptWorker),
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  rs.BlockTimeout,
		ClaimInterval: rs.ClaimInterval,
		RetryLimit:    rs.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    rs.RetryBackoff.Initial,
			Max:        rs.RetryBackoff.Max,
			Multiplier: rs.RetryBackoff.Multiplier,
		},
	})
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// ProvideLedger 提供预算账本
func ProvideLedger(cfg *config.Config) *budget.Ledger {
	return budget.NewLedger(
		budget.Limits{Daily: cfg.Budget.DailyLimit, Monthly: cfg.Budget.MonthlyLimit},
		budget.WithLocation(cfg.Budget.Location()),
	)
}

// ProvideImageGenerator 按配置选择图像生成实现
func ProvideImageGenerator(ctx context.Context, cfg *config.Config) studio.ImageGenerator {
	img := cfg.Media.Image
	if img.Provider == "placeholder" || img.APIKey == "" {
		if img.Provider != "placeholder" {
			logger.Warn(ctx, "image api key not configured, using placeholder images")
		}
		return media.PlaceholderImageGenerator{Size: img.Size}
	}
	return media.NewOpenAIImageGenerator(img)
}

// ProvideVideoGenerator 提供视频生成实现
func ProvideVideoGenerator(cfg *config.Config) studio.VideoGenerator {
	return media.PlaceholderVideoGenerator{Delay: cfg.Media.Video.SimulatedDelay}
}

// ProvideAssetPublisher 按配置选择资产存储，结果按逻辑名缓存
func ProvideAssetPublisher(ctx context.Context, cfg *config.Config, cache *redis.Cache) studio.AssetPublisher {
	var next studio.AssetPublisher = media.PassthroughPublisher{}
	if cfg.Storage.Provider == "cloudinary" {
		if cfg.Storage.Cloudinary.CloudName == "" || cfg.Storage.Cloudinary.UploadPreset == "" {
			logger.Warn(ctx, "cloudinary not configured, assets keep their generator URLs")
		} else {
			next = media.NewCloudinaryPublisher(cfg.Storage.Cloudinary)
		}
	}
	ttl := cfg.Storage.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return media.NewCachedPublisher(next, cache, ttl)
}

// ProvideHub 提供进程内事件中心
func ProvideHub(cfg *config.Config) *realtime.Hub {
	return realtime.NewHub(cfg.Realtime.BufferSize)
}

// ProvideRedisBus realtime.backend=redis 时提供跨实例总线，否则为 nil
func ProvideRedisBus(cfg *config.Config, client *redis.Client) *realtime.RedisBus {
	if cfg.Realtime.Backend != "redis" {
		return nil
	}
	return realtime.NewRedisBus(client.Redis(), cfg.Realtime.ChannelPrefix)
}

// ProvideEventPublisher 有总线时经总线发布，由网关的 Relay 回灌到 Hub
func ProvideEventPublisher(hub *realtime.Hub, bus *realtime.RedisBus) realtime.Publisher {
	if bus != nil {
		return bus
	}
	return hub
}

// ProvideWorkerEventPublisher worker 进程没有 websocket 订阅者，事件总是经 Redis 发布
func ProvideWorkerEventPublisher(cfg *config.Config, client *redis.Client) realtime.Publisher {
	return realtime.NewRedisBus(client.Redis(), cfg.Realtime.ChannelPrefix)
}

// ProvideEventSink 提供编排器的事件出口
func ProvideEventSink(pub realtime.Publisher) studio.EventSink {
	return realtime.NewSink(pub)
}

// ProvideModelClient 提供语言模型客户端
func ProvideModelClient(cfg *config.Config, factory *llm.EinoFactory) studio.ModelClient {
	return llm.NewChatClient(factory, cfg.LLM.DefaultProvider)
}

// ProvideToolExecutor 提供工具执行器
func ProvideToolExecutor(
	cfg *config.Config,
	elements repository.ElementRepository,
	images studio.ImageGenerator,
	videos studio.VideoGenerator,
	publisher studio.AssetPublisher,
	ledger *budget.Ledger,
	sink studio.EventSink,
) *studio.ToolExecutor {
	var opts []studio.ExecutorOption
	if rate := cfg.Media.Video.CostPerSecond; rate > 0 {
		opts = append(opts, studio.WithVideoCost(studio.PerSecondVideoCost(rate)))
	}
	return studio.NewToolExecutor(elements, images, videos, publisher, ledger, sink, opts...)
}

// ProvideOrchestrator 提供会话编排器
func ProvideOrchestrator(
	cfg *config.Config,
	turns repository.ConversationTurnRepository,
	model studio.ModelClient,
	tools *studio.ToolExecutor,
	sink studio.EventSink,
) *studio.Orchestrator {
	return studio.NewOrchestrator(studio.OrchestratorConfig{
		SystemPrompt: cfg.Orchestrator.SystemPrompt,
		Retry: studio.RetryPolicy{
			MaxAttempts: cfg.Orchestrator.MaxAttempts,
			BaseDelay:   cfg.Orchestrator.BackoffBase,
		},
		FollowUpMaxTokens: cfg.LLM.FollowUpMaxTokens,
	}, turns, model, tools, sink)
}

// ProvidePromptDispatcher dispatch=queue 时写入 Redis Stream，否则在进程内运行
func ProvidePromptDispatcher(cfg *config.Config, orch *studio.Orchestrator, producer *messaging.Producer) (studio.PromptDispatcher, func()) {
	if cfg.Orchestrator.Dispatch == "queue" {
		return messaging.NewQueueDispatcher(producer), func() {}
	}
	inline := studio.NewInlineDispatcher(orch)
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := inline.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "in-flight prompt cycles canceled on shutdown", "error", err.Error())
		}
	}
	return inline, cleanup
}

// ProvidePromptGate 提供提示提交准入检查
func ProvidePromptGate(cfg *config.Config, limiter middleware.RateLimiter) handler.PromptGate {
	return middleware.PromptGate(cfg.Security.RateLimit, limiter)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rdb *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(pg, rdb, cfg.App.Version)
}

// ProvideRealtimeHandler 提供实时通道处理器
func ProvideRealtimeHandler(
	cfg *config.Config,
	projects repository.ProjectRepository,
	hub *realtime.Hub,
	dispatcher studio.PromptDispatcher,
	gate handler.PromptGate,
) *handler.RealtimeHandler {
	return handler.NewRealtimeHandler(cfg.Realtime, cfg.Security.CORS, projects, hub, dispatcher, gate)
}

// ProvideRouter 提供路由器
func ProvideRouter(cfg *config.Config, handlers router.Handlers, gate handler.PromptGate) *router.Router {
	return router.New(cfg, handlers, middleware.PromptRateLimit(gate))
}
