// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"slices"

	"z-script-ai-api/internal/domain/entity"
)

type ConversationTurnRepository struct {
	client *Client
}

func NewConversationTurnRepository(client *Client) *ConversationTurnRepository {
	return &ConversationTurnRepository{client: client}
}

func (r *ConversationTurnRepository) Append(ctx context.Context, turn *entity.ConversationTurn) error {
	ctx, span := tracer.Start(ctx, "postgres.ConversationTurnRepository.Append")
	defer span.End()

	if err := turn.Validate(); err != nil {
		return err
	}

	db := getDB(ctx, r.client.db)
	if err := db.Omit("seq").Create(turn).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}
	return nil
}

func (r *ConversationTurnRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.ConversationTurn, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationTurnRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var turns []*entity.ConversationTurn
	if err := db.Where("project_id = ?", projectID).Order("seq ASC").Find(&turns).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list conversation turns: %w", err)
	}
	return turns, nil
}

func (r *ConversationTurnRepository) ListRecentByProject(ctx context.Context, projectID string, limit int) ([]*entity.ConversationTurn, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationTurnRepository.ListRecentByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var turns []*entity.ConversationTurn
	if err := db.Where("project_id = ?", projectID).
		Order("seq DESC").
		Limit(limit).
		Find(&turns).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list recent conversation turns: %w", err)
	}
	slices.Reverse(turns)
	return turns, nil
}

func (r *ConversationTurnRepository) CountByProject(ctx context.Context, projectID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationTurnRepository.CountByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var total int64
	if err := db.Model(&entity.ConversationTurn{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count conversation turns: %w", err)
	}
	return total, nil
}
