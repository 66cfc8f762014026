// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"z-script-ai-api/internal/application/studio"
	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/internal/domain/repository"
	"z-script-ai-api/internal/interfaces/http/dto"
	"z-script-ai-api/pkg/errors"
)

// recentPreviewSize 项目列表中预览的最近元素/对话条数
const recentPreviewSize = 3

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	elementRepo repository.ElementRepository
	turnRepo    repository.ConversationTurnRepository
	dispatcher  studio.PromptDispatcher
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	elementRepo repository.ElementRepository,
	turnRepo repository.ConversationTurnRepository,
	dispatcher studio.PromptDispatcher,
) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		elementRepo: elementRepo,
		turnRepo:    turnRepo,
		dispatcher:  dispatcher,
	}
}

// CreateProject 创建项目
// @Summary 创建项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body dto.CreateProjectRequest true "项目信息"
// @Success 201 {object} dto.Response[dto.ProjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.FromAppError(c, errors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}

	user, err := h.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}
	if user == nil {
		dto.FromAppError(c, errors.ErrUserNotFound)
		return
	}

	project := req.ToProjectEntity()
	if err := h.projectRepo.Create(ctx, project); err != nil {
		respondError(c, err, "failed to create project")
		return
	}
	dto.Created(c, dto.ToProjectResponse(project))
}

// GetProject 获取项目详情（含全部元素与对话）
// @Summary 获取项目详情
// @Tags Projects
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.ProjectDetailResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := loadProject(ctx, h.projectRepo, dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	elements, err := h.elementRepo.ListByProject(ctx, project.ID)
	if err != nil {
		respondError(c, err, "failed to list elements")
		return
	}
	turns, err := h.turnRepo.ListByProject(ctx, project.ID)
	if err != nil {
		respondError(c, err, "failed to list conversation turns")
		return
	}

	dto.Success(c, dto.ToProjectDetailResponse(&entity.ProjectDetail{
		Project:  project,
		Elements: elements,
		Turns:    turns,
	}))
}

// ListUserProjects 用户项目列表，每项附带最近元素、最近对话与计数
// @Summary 用户项目列表
// @Tags Projects
// @Produce json
// @Param uid path string true "用户 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[[]dto.ProjectSummaryResponse]
// @Router /v1/users/{uid}/projects [get]
func (h *ProjectHandler) ListUserProjects(c *gin.Context) {
	ctx := c.Request.Context()
	page := dto.BindPage(c)

	result, err := h.projectRepo.ListByUser(ctx, dto.BindUserID(c), repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		respondError(c, err, "failed to list projects")
		return
	}

	items := make([]*dto.ProjectSummaryResponse, 0, len(result.Items))
	for _, project := range result.Items {
		summary, err := h.summarize(ctx, project)
		if err != nil {
			respondError(c, err, "failed to summarize project")
			return
		}
		items = append(items, summary)
	}
	dto.SuccessWithPage(c, items, dto.NewPageMeta(page.Page, page.PageSize, int(result.Total)))
}

func (h *ProjectHandler) summarize(ctx context.Context, project *entity.Project) (*dto.ProjectSummaryResponse, error) {
	var err error
	resp := &dto.ProjectSummaryResponse{ProjectResponse: dto.ToProjectResponse(project)}
	if resp.RecentElements, err = h.elementRepo.ListRecentByProject(ctx, project.ID, recentPreviewSize); err != nil {
		return nil, err
	}
	if resp.RecentTurns, err = h.turnRepo.ListRecentByProject(ctx, project.ID, recentPreviewSize); err != nil {
		return nil, err
	}
	if resp.ElementCount, err = h.elementRepo.CountByProject(ctx, project.ID); err != nil {
		return nil, err
	}
	if resp.TurnCount, err = h.turnRepo.CountByProject(ctx, project.ID); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListElements 按 order 返回项目元素
// @Summary 项目元素
// @Tags Projects
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[[]entity.Element]
// @Router /v1/projects/{pid}/elements [get]
func (h *ProjectHandler) ListElements(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := loadProject(ctx, h.projectRepo, dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}
	elements, err := h.elementRepo.ListByProject(ctx, project.ID)
	if err != nil {
		respondError(c, err, "failed to list elements")
		return
	}
	if elements == nil {
		elements = []*entity.Element{}
	}
	dto.Success(c, elements)
}

// UpdateElement 编辑项目中的元素，order 不变
// @Summary 编辑元素
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param eid path string true "元素 ID"
// @Param body body dto.UpdateElementRequest true "修改内容"
// @Success 200 {object} dto.Response[entity.Element]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/elements/{eid} [patch]
func (h *ProjectHandler) UpdateElement(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := loadProject(ctx, h.projectRepo, dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	elementID := dto.BindElementID(c)
	el, err := h.elementRepo.GetByID(ctx, elementID)
	if err != nil {
		respondError(c, errors.Wrap(err, errors.CodeDatabaseError, "failed to get element"), "failed to get element")
		return
	}
	if el == nil || el.ProjectID != project.ID {
		dto.FromAppError(c, errors.ErrElementNotFound.WithDetail(elementID))
		return
	}

	var req dto.UpdateElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.FromAppError(c, errors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}
	updated := *el
	if err := req.ApplyTo(&updated); err != nil {
		dto.FromAppError(c, errors.ErrValidationFailed.WithDetail(err.Error()))
		return
	}
	if err := h.elementRepo.Update(ctx, &updated); err != nil {
		respondError(c, err, "failed to update element")
		return
	}
	dto.Success(c, &updated)
}

// ListTurns 按写入顺序返回项目对话
// @Summary 项目对话
// @Tags Projects
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[[]entity.ConversationTurn]
// @Router /v1/projects/{pid}/turns [get]
func (h *ProjectHandler) ListTurns(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := loadProject(ctx, h.projectRepo, dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}
	turns, err := h.turnRepo.ListByProject(ctx, project.ID)
	if err != nil {
		respondError(c, err, "failed to list conversation turns")
		return
	}
	if turns == nil {
		turns = []*entity.ConversationTurn{}
	}
	dto.Success(c, turns)
}

// SubmitPrompt 提交提示，编排周期异步执行，结果通过实时事件推送
// @Summary 提交提示
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.SubmitPromptRequest true "提示"
// @Success 202 {object} dto.Response[dto.SubmitPromptResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/prompts [post]
func (h *ProjectHandler) SubmitPrompt(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SubmitPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.FromAppError(c, errors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}

	project, err := loadProject(ctx, h.projectRepo, dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	if err := h.dispatcher.Dispatch(ctx, project.ID, req.Prompt); err != nil {
		respondError(c, errors.ErrServiceUnavailable.WithDetail("prompt could not be scheduled").WithError(err), "failed to dispatch prompt")
		return
	}

	dto.Accepted(c, dto.SubmitPromptResponse{
		ProjectID: project.ID,
		RequestID: c.GetString("request_id"),
	})
}
