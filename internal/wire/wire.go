//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"z-script-ai-api/internal/config"
	"z-script-ai-api/internal/domain/repository"
	"z-script-ai-api/internal/infrastructure/llm"
	"z-script-ai-api/internal/infrastructure/persistence/postgres"
	"z-script-ai-api/internal/infrastructure/persistence/redis"
	"z-script-ai-api/internal/interfaces/http/handler"
	"z-script-ai-api/internal/interfaces/http/middleware"
	"z-script-ai-api/internal/interfaces/http/router"
)

// PostgresSet PostgreSQL 依赖集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewUserRepository,
	postgres.NewProjectRepository,
	postgres.NewElementRepository,
	postgres.NewConversationTurnRepository,
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.ProjectRepository), new(*postgres.ProjectRepository)),
	wire.Bind(new(repository.ElementRepository), new(*postgres.ElementRepository)),
	wire.Bind(new(repository.ConversationTurnRepository), new(*postgres.ConversationTurnRepository)),
)

// RedisSet Redis 依赖集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// StudioSet 编排依赖集合
var StudioSet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideModelClient,
	ProvideLedger,
	ProvideImageGenerator,
	ProvideVideoGenerator,
	ProvideAssetPublisher,
	ProvideEventSink,
	ProvideToolExecutor,
	ProvideOrchestrator,
)

// HTTPSet HTTP 层依赖集合
var HTTPSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewUserHandler,
	handler.NewProjectHandler,
	handler.NewBudgetHandler,
	ProvideRealtimeHandler,
	ProvidePromptGate,
	wire.Struct(new(router.Handlers), "*"),
	ProvideRouter,
)

// InitializeApp 初始化 API 网关
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		StudioSet,
		HTTPSet,
		ProvideMessagingProducer,
		ProvideHub,
		ProvideRedisBus,
		ProvideEventPublisher,
		ProvidePromptDispatcher,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化 prompt-worker
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		StudioSet,
		ProvideWorkerEventPublisher,
		ProvidePromptConsumer,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InitializePostgresOnly 仅初始化 PostgreSQL（用于 bootstrap）
func InitializePostgresOnly(cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		ProvidePostgresClient,
		postgres.NewTxManager,
		postgres.NewUserRepository,
		postgres.NewProjectRepository,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}
