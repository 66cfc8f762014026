// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"z-script-ai-api/internal/config"
	"z-script-ai-api/internal/infrastructure/persistence/redis"
	"z-script-ai-api/internal/interfaces/http/dto"
	"z-script-ai-api/pkg/errors"
	"z-script-ai-api/pkg/logger"
)

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// PromptGate 单项目提示提交的准入检查，未启用时恒为放行
// 限流器故障时放行，避免影响业务
func PromptGate(cfg config.RateLimitConfig, limiter RateLimiter) func(ctx context.Context, projectID string) bool {
	if !cfg.Enabled || limiter == nil || cfg.PromptsPerMinute <= 0 {
		return func(context.Context, string) bool { return true }
	}
	return func(ctx context.Context, projectID string) bool {
		allowed, err := limiter.Allow(ctx, redis.PromptRateLimitKey(projectID), cfg.PromptsPerMinute, time.Minute)
		if err != nil {
			logger.Warn(ctx, "rate limiter unavailable, allowing request", "error", err.Error())
			return true
		}
		return allowed
	}
}

// PromptRateLimit 按路径中的项目 ID 限制提示提交频率
func PromptRateLimit(gate func(ctx context.Context, projectID string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !gate(c.Request.Context(), c.Param("pid")) {
			dto.FromAppError(c, errors.ErrTooManyRequests.WithDetail("prompt rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}
