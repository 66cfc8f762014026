// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"z-script-ai-api/internal/domain/entity"
)

// ErrProjectNotFound 元素所属项目不存在
var ErrProjectNotFound = errors.New("project not found")

// ElementRepository 剧本元素仓储实现
type ElementRepository struct {
	client *Client
}

// NewElementRepository 创建元素仓储
func NewElementRepository(client *Client) *ElementRepository {
	return &ElementRepository{client: client}
}

// Append 锁定项目行后分配 order，保证同一项目内 order 连续且唯一
// 项目行上的 FOR UPDATE 让同项目的并发写入串行执行，MAX("order")+1 因此不会重复或留空；
// (project_id, order) 唯一索引兜底。见 element_repo_integration_test.go
func (r *ElementRepository) Append(ctx context.Context, element *entity.Element) error {
	ctx, span := tracer.Start(ctx, "postgres.ElementRepository.Append")
	defer span.End()

	err := withTx(ctx, r.client.db, func(ctx context.Context) error {
		db := getDB(ctx, r.client.db)

		var project entity.Project
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&project, "id = ?", element.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrProjectNotFound, element.ProjectID)
			}
			return err
		}

		var next int
		if err := db.Model(&entity.Element{}).
			Where("project_id = ?", element.ProjectID).
			Select(`COALESCE(MAX("order") + 1, 0)`).
			Scan(&next).Error; err != nil {
			return err
		}
		element.Order = next

		if err := db.Create(element).Error; err != nil {
			return err
		}
		return db.Model(&entity.Project{}).Where("id = ?", element.ProjectID).
			Update("updated_at", gorm.Expr("NOW()")).Error
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to append element: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取元素
func (r *ElementRepository) GetByID(ctx context.Context, id string) (*entity.Element, error) {
	ctx, span := tracer.Start(ctx, "postgres.ElementRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var element entity.Element
	if err := db.First(&element, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get element: %w", err)
	}
	return &element, nil
}

// Update 更新元素
func (r *ElementRepository) Update(ctx context.Context, element *entity.Element) error {
	ctx, span := tracer.Start(ctx, "postgres.ElementRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(element).
		Select("content", "asset_url", "is_generating", "metadata", "updated_at").
		Updates(element).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update element: %w", err)
	}
	return nil
}

// ListByProject 按 order 返回项目元素
func (r *ElementRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.Element, error) {
	ctx, span := tracer.Start(ctx, "postgres.ElementRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var elements []*entity.Element
	if err := db.Where("project_id = ?", projectID).Order(`"order" ASC`).Find(&elements).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list elements: %w", err)
	}
	return elements, nil
}

// ListRecentByProject 返回最近的 limit 个元素
func (r *ElementRepository) ListRecentByProject(ctx context.Context, projectID string, limit int) ([]*entity.Element, error) {
	ctx, span := tracer.Start(ctx, "postgres.ElementRepository.ListRecentByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var elements []*entity.Element
	if err := db.Where("project_id = ?", projectID).
		Order(`"order" DESC`).
		Limit(limit).
		Find(&elements).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list recent elements: %w", err)
	}
	slices.Reverse(elements)
	return elements, nil
}

// CountByProject 统计元素数
func (r *ElementRepository) CountByProject(ctx context.Context, projectID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ElementRepository.CountByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var total int64
	if err := db.Model(&entity.Element{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count elements: %w", err)
	}
	return total, nil
}
