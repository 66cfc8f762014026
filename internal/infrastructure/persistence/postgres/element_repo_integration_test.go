//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"z-script-ai-api/internal/config"
	"z-script-ai-api/internal/domain/entity"
)

// 运行: TEST_POSTGRES_HOST=localhost go test -tags integration ./internal/infrastructure/persistence/postgres/
func newIntegrationClient(t *testing.T) *Client {
	t.Helper()
	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("TEST_POSTGRES_HOST not set")
	}
	port, _ := strconv.Atoi(envOr("TEST_POSTGRES_PORT", "5432"))
	client, err := NewClient(&config.PostgresConfig{
		Host:            host,
		Port:            port,
		User:            envOr("TEST_POSTGRES_USER", "postgres"),
		Password:        envOr("TEST_POSTGRES_PASSWORD", "postgres"),
		Database:        envOr("TEST_POSTGRES_DB", "z_script_test"),
		SSLMode:         "disable",
		MaxOpenConns:    16,
		ConnMaxLifetime: time.Minute,
	}, "error")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return client
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestElementAppendConcurrentOrderIsGapless(t *testing.T) {
	client := newIntegrationClient(t)
	ctx := context.Background()

	user := entity.NewUser(fmt.Sprintf("order-%d@example.com", time.Now().UnixNano()), "Order Test")
	if err := NewUserRepository(client).Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := entity.NewProject(user.ID, "Concurrent appends", "")
	if err := NewProjectRepository(client).Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	repo := NewElementRepository(client)
	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Append(ctx, entity.NewElement(project.ID, entity.ElementAction, fmt.Sprintf("beat %d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	elements, err := repo.ListByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(elements) != n {
		t.Fatalf("elements = %d, want %d", len(elements), n)
	}
	for i, el := range elements {
		if el.Order != i {
			t.Fatalf("element %d has order %d", i, el.Order)
		}
	}
}

func TestElementAppendUnknownProject(t *testing.T) {
	client := newIntegrationClient(t)
	err := NewElementRepository(client).Append(context.Background(),
		entity.NewElement("00000000-0000-0000-0000-000000000000", entity.ElementAction, "orphan"))
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
}
