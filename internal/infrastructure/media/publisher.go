package media

import (
	"context"
	"encoding/json"
	"time"

	"z-script-ai-api/internal/application/studio"
)

// PassthroughPublisher 不做转存，直接返回源地址
type PassthroughPublisher struct{}

// Publish 原样返回 sourceURL
func (PassthroughPublisher) Publish(_ context.Context, sourceURL, _ string) (string, error) {
	return sourceURL, nil
}

// LoadingCache Read-Through 缓存
type LoadingCache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (any, error)) ([]byte, error)
}

// CachedPublisher 按逻辑名缓存发布结果，同名资产只上传一次
type CachedPublisher struct {
	next  studio.AssetPublisher
	cache LoadingCache
	ttl   time.Duration
}

// NewCachedPublisher 创建带缓存的发布器
func NewCachedPublisher(next studio.AssetPublisher, cache LoadingCache, ttl time.Duration) *CachedPublisher {
	return &CachedPublisher{next: next, cache: cache, ttl: ttl}
}

// Publish 命中缓存时返回已发布地址
func (p *CachedPublisher) Publish(ctx context.Context, sourceURL, logicalName string) (string, error) {
	raw, err := p.cache.GetOrLoad(ctx, logicalName, p.ttl, func(ctx context.Context) (any, error) {
		return p.next.Publish(ctx, sourceURL, logicalName)
	})
	if err != nil {
		return "", err
	}
	var published string
	if err := json.Unmarshal(raw, &published); err != nil {
		return "", err
	}
	return published, nil
}
