// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-script-ai-api/internal/domain/entity"
)

// ConversationTurnRepository 对话轮次仓储，只追加
type ConversationTurnRepository interface {
	// Append 写入轮次，顺序由存储的自增序列保证
	Append(ctx context.Context, turn *entity.ConversationTurn) error

	// ListByProject 按写入顺序返回项目的全部轮次
	ListByProject(ctx context.Context, projectID string) ([]*entity.ConversationTurn, error)

	// ListRecentByProject 返回最近 limit 条轮次，仍按写入顺序排列
	ListRecentByProject(ctx context.Context, projectID string, limit int) ([]*entity.ConversationTurn, error)

	// CountByProject 统计轮次数
	CountByProject(ctx context.Context, projectID string) (int64, error)
}
