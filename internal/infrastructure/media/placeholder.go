package media

import (
	"context"
	"net/url"
	"time"

	"z-script-ai-api/internal/application/studio"
	"z-script-ai-api/pkg/logger"
)

// PlaceholderImageGenerator 未配置图像提供商时返回占位图
type PlaceholderImageGenerator struct {
	Size string
}

// Generate 返回嵌入描述文字的占位图地址
func (g PlaceholderImageGenerator) Generate(_ context.Context, description string) (string, error) {
	size := g.Size
	if size == "" {
		size = "1024x1024"
	}
	return "https://placehold.co/" + size + "?text=" + url.QueryEscape(description), nil
}

// PlaceholderVideoGenerator 模拟视频生成：等待片刻后原样返回输入图片，不计费
type PlaceholderVideoGenerator struct {
	Delay time.Duration
}

// Generate 模拟生成耗时，可被 ctx 取消
func (g PlaceholderVideoGenerator) Generate(ctx context.Context, req studio.VideoRequest) (*studio.VideoResult, error) {
	logger.Info(ctx, "simulating video generation",
		"image_url", req.ImageURL,
		"duration", req.Duration,
	)
	if g.Delay > 0 {
		t := time.NewTimer(g.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return &studio.VideoResult{URL: req.ImageURL, Cost: 0}, nil
}
