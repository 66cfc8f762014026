// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"z-script-ai-api/internal/domain/entity"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description,omitempty" binding:"max=5000"`
}

// ToProjectEntity 转换为项目实体
func (r *CreateProjectRequest) ToProjectEntity() *entity.Project {
	return entity.NewProject(r.UserID, r.Title, r.Description)
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToProjectResponse 转换为项目响应
func ToProjectResponse(p *entity.Project) *ProjectResponse {
	if p == nil {
		return nil
	}
	return &ProjectResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ProjectSummaryResponse 项目列表项，附带最近元素与对话
type ProjectSummaryResponse struct {
	*ProjectResponse
	RecentElements []*entity.Element          `json:"recent_elements"`
	RecentTurns    []*entity.ConversationTurn `json:"recent_turns"`
	ElementCount   int64                      `json:"element_count"`
	TurnCount      int64                      `json:"turn_count"`
}

// ProjectDetailResponse 项目详情
type ProjectDetailResponse struct {
	*ProjectResponse
	Elements []*entity.Element          `json:"elements"`
	Turns    []*entity.ConversationTurn `json:"turns"`
}

// ToProjectDetailResponse 转换为项目详情响应
func ToProjectDetailResponse(d *entity.ProjectDetail) *ProjectDetailResponse {
	resp := &ProjectDetailResponse{
		ProjectResponse: ToProjectResponse(d.Project),
		Elements:        d.Elements,
		Turns:           d.Turns,
	}
	if resp.Elements == nil {
		resp.Elements = []*entity.Element{}
	}
	if resp.Turns == nil {
		resp.Turns = []*entity.ConversationTurn{}
	}
	return resp
}

// SubmitPromptRequest 提交提示请求
type SubmitPromptRequest struct {
	Prompt string `json:"prompt" binding:"required,max=8000"`
}

// SubmitPromptResponse 提示已受理
type SubmitPromptResponse struct {
	ProjectID string `json:"project_id"`
	RequestID string `json:"request_id,omitempty"`
}
