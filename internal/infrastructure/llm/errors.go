package llm

import (
	"errors"
	"fmt"
	"strings"

	"z-script-ai-api/internal/domain/service"
)

// IsRateLimitError 识别提供商返回的限流与配额错误
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, service.ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"):
		return true
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "rate_limit"):
		return true
	case strings.Contains(msg, "too many requests"):
		return true
	case strings.Contains(msg, "insufficient_quota"), strings.Contains(msg, "quota exceeded"):
		return true
	default:
		return false
	}
}

// classifyError 为限流错误挂上 service.ErrRateLimited，其余原样返回
func classifyError(err error) error {
	if err == nil || errors.Is(err, service.ErrRateLimited) {
		return err
	}
	if IsRateLimitError(err) {
		return fmt.Errorf("%w: %w", service.ErrRateLimited, err)
	}
	return err
}
