// Package entity 定义领域实体
package entity

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyTurnContent 轮次内容为空
var ErrEmptyTurnContent = errors.New("conversation turn content must not be empty")

// ToolCallRecord 助手轮次中模型请求的工具调用
type ToolCallRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ConversationTurn 项目内的一条对话记录，写入后不可修改
type ConversationTurn struct {
	ID        string           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Seq       int64            `json:"seq" gorm:"autoIncrement;uniqueIndex;not null"`
	ProjectID string           `json:"project_id" gorm:"type:uuid;index;not null"`
	Role      Role             `json:"role" gorm:"type:varchar(16);not null"`
	Content   string           `json:"content" gorm:"type:text;not null"`
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

// NewConversationTurn 创建对话轮次
func NewConversationTurn(projectID string, role Role, content string) *ConversationTurn {
	return &ConversationTurn{
		ProjectID: projectID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Validate 校验轮次可写入
func (t *ConversationTurn) Validate() error {
	if strings.TrimSpace(t.Content) == "" {
		return ErrEmptyTurnContent
	}
	if !t.Role.Valid() {
		return errors.New("invalid conversation role: " + string(t.Role))
	}
	return nil
}
