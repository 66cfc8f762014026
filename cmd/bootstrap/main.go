package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"z-script-ai-api/internal/config"
	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/internal/domain/repository"
	"z-script-ai-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 建表
	if err := dataLayer.PgClient.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("Schema migrated.")

	// 4. 演示用户与项目，同一事务内完成
	email := os.Getenv("BOOTSTRAP_USER_EMAIL")
	if email == "" {
		email = "demo@z-script.local"
	}
	err = dataLayer.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		user, err := dataLayer.UserRepo.FindOrCreate(txCtx, email, "Demo Writer")
		if err != nil {
			return fmt.Errorf("ensure demo user: %w", err)
		}
		fmt.Printf("Demo user: %s (%s)\n", user.Email, user.ID)

		existing, err := dataLayer.ProjectRepo.ListByUser(txCtx, user.ID, repository.NewPagination(1, 1))
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		if existing.Total > 0 {
			fmt.Printf("Demo user already has %d project(s).\n", existing.Total)
			return nil
		}
		project := entity.NewProject(user.ID, "Untitled Script", "Created by bootstrap")
		if err := dataLayer.ProjectRepo.Create(txCtx, project); err != nil {
			return fmt.Errorf("create demo project: %w", err)
		}
		fmt.Printf("Demo project created with ID: %s\n", project.ID)
		return nil
	})
	if err != nil {
		log.Fatalf("failed to seed demo data: %v", err)
	}

	fmt.Println("Bootstrap completed successfully.")
}
