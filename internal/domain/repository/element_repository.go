// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-script-ai-api/internal/domain/entity"
)

// ElementRepository 剧本元素仓储
type ElementRepository interface {
	// Append 写入元素并分配 order = 当前最大值 + 1（空项目为 0）
	Append(ctx context.Context, element *entity.Element) error

	// GetByID 根据 ID 获取元素
	GetByID(ctx context.Context, id string) (*entity.Element, error)

	// Update 更新元素内容、资产地址与生成状态，不修改 order
	Update(ctx context.Context, element *entity.Element) error

	// ListByProject 按 order 升序返回元素
	ListByProject(ctx context.Context, projectID string) ([]*entity.Element, error)

	// ListRecentByProject 返回 order 最大的 limit 个元素，按 order 升序
	ListRecentByProject(ctx context.Context, projectID string, limit int) ([]*entity.Element, error)

	// CountByProject 统计元素数
	CountByProject(ctx context.Context, projectID string) (int64, error)
}
