// Package media 提供图像、视频生成与资产发布的外部适配器
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"z-script-ai-api/internal/config"
	"z-script-ai-api/internal/domain/service"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIImageGenerator 调用 OpenAI images/generations 接口
type OpenAIImageGenerator struct {
	cfg    config.ImageConfig
	client *http.Client
}

// NewOpenAIImageGenerator 创建图像生成器
func NewOpenAIImageGenerator(cfg config.ImageConfig) *OpenAIImageGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	return &OpenAIImageGenerator{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Generate 生成一张图片并返回提供商的临时 URL
func (g *OpenAIImageGenerator) Generate(ctx context.Context, description string) (string, error) {
	body, err := json.Marshal(imageRequest{
		Model:   g.cfg.Model,
		Prompt:  description,
		N:       1,
		Size:    g.cfg.Size,
		Quality: g.cfg.Quality,
	})
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read image response: %w", err)
	}

	var parsed imageResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		err := fmt.Errorf("image provider returned %d: %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %w", service.ErrRateLimited, err)
		}
		return "", err
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", fmt.Errorf("image provider returned no image")
	}
	return parsed.Data[0].URL, nil
}
