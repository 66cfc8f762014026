package service

import "errors"

// ErrRateLimited 模型或媒体提供商返回限流/配额类错误，可退避重试
var ErrRateLimited = errors.New("provider rate limited")

// IsRateLimited 判断错误链中是否包含限流标记
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
