// Package entity 定义领域实体
package entity

import (
	"time"
)

// Project 剧本项目
type Project struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      string    `json:"user_id" gorm:"type:uuid;index;not null"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// NewProject 创建新项目
func NewProject(userID, title, description string) *Project {
	now := time.Now()
	return &Project{
		UserID:      userID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProjectDetail 项目及其有序元素与对话
type ProjectDetail struct {
	*Project
	Elements []*Element          `json:"elements"`
	Turns    []*ConversationTurn `json:"turns"`
}
