// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"z-script-ai-api/internal/domain/entity"
)

// CreateUserRequest 按邮箱查找或创建用户
type CreateUserRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
	Name  string `json:"name,omitempty" binding:"max=255"`
}

// UserResponse 用户响应
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse 转换为用户响应
func ToUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
