package handler

import (
	"github.com/gin-gonic/gin"

	"z-script-ai-api/internal/domain/repository"
	"z-script-ai-api/internal/interfaces/http/dto"
	"z-script-ai-api/pkg/errors"
)

// UserHandler 用户处理器
type UserHandler struct {
	userRepo repository.UserRepository
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// CreateUser 按邮箱查找或创建用户
// @Summary 查找或创建用户
// @Tags Users
// @Accept json
// @Produce json
// @Param body body dto.CreateUserRequest true "用户信息"
// @Success 200 {object} dto.Response[dto.UserResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.FromAppError(c, errors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}

	user, err := h.userRepo.FindOrCreate(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		respondError(c, err, "failed to create user")
		return
	}
	dto.Success(c, dto.ToUserResponse(user))
}

// GetUser 获取用户
// @Summary 获取用户
// @Tags Users
// @Produce json
// @Param uid path string true "用户 ID"
// @Success 200 {object} dto.Response[dto.UserResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/users/{uid} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userRepo.GetByID(c.Request.Context(), dto.BindUserID(c))
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}
	if user == nil {
		dto.FromAppError(c, errors.ErrUserNotFound)
		return
	}
	dto.Success(c, dto.ToUserResponse(user))
}
