// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-script-ai-api/internal/domain/entity"
)

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// Create 创建项目
	Create(ctx context.Context, project *entity.Project) error

	// GetByID 根据 ID 获取项目，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Project, error)

	// ListByUser 获取用户项目列表，按更新时间倒序
	ListByUser(ctx context.Context, userID string, pagination Pagination) (*PagedResult[*entity.Project], error)

	// Touch 刷新项目更新时间
	Touch(ctx context.Context, id string) error
}
