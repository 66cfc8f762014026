// Package main 提示队列消费者入口（prompt-worker）
// 处理 orchestrator.dispatch=queue 时网关写入 Redis Stream 的提示，事件经 Redis 频道回到网关
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"z-script-ai-api/internal/config"
	"z-script-ai-api/internal/infrastructure/messaging"
	einoobs "z-script-ai-api/internal/observability/eino"
	"z-script-ai-api/internal/wire"
	"z-script-ai-api/pkg/logger"
	"z-script-ai-api/pkg/tracer"
)

const dlqAlertThreshold = 100

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "prompt-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	einoobs.Init()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	orch := worker.Orchestrator
	worker.Consumer.RegisterHandler(messaging.MessageTypePrompt, messaging.PromptHandler(
		messaging.PromptRunnerFunc(func(ctx context.Context, projectID, prompt string) {
			orch.HandlePrompt(ctx, projectID, prompt)
		}),
	))

	if err := worker.Consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}
	go worker.Consumer.MonitorDLQ(ctx, dlqAlertThreshold)

	log := logger.FromContext(ctx)
	log.Info("prompt-worker started", "stream", string(messaging.StreamPrompts))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("prompt-worker shutting down")
	worker.Consumer.Stop()
}
