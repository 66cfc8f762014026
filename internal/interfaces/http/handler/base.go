package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/internal/domain/repository"
	"z-script-ai-api/internal/interfaces/http/dto"
	"z-script-ai-api/pkg/errors"
	"z-script-ai-api/pkg/logger"
)

// respondError 统一处理仓储与应用错误
func respondError(c *gin.Context, err error, msg string) {
	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		if appErr.HTTPStatus >= 500 {
			logger.Error(c.Request.Context(), msg, err)
		}
		dto.FromAppError(c, appErr)
		return
	}
	logger.Error(c.Request.Context(), msg, err)
	dto.InternalError(c, msg)
}

// loadProject 读取项目，不存在时返回 ErrProjectNotFound
func loadProject(ctx context.Context, projects repository.ProjectRepository, id string) (*entity.Project, error) {
	project, err := projects.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to get project")
	}
	if project == nil {
		return nil, errors.ErrProjectNotFound.WithDetail(id)
	}
	return project, nil
}
