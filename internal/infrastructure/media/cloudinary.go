package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"z-script-ai-api/internal/config"
)

// CloudinaryPublisher 通过非签名上传将临时 URL 转存为持久地址
type CloudinaryPublisher struct {
	cfg    config.CloudinaryConfig
	client *http.Client
}

// NewCloudinaryPublisher 创建 Cloudinary 发布器
func NewCloudinaryPublisher(cfg config.CloudinaryConfig) *CloudinaryPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudinary.com/v1_1"
	}
	return &CloudinaryPublisher{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Publish 上传 sourceURL，logicalName 作为 public_id，不覆盖同名资产
func (p *CloudinaryPublisher) Publish(ctx context.Context, sourceURL, logicalName string) (string, error) {
	if p.cfg.CloudName == "" {
		return "", fmt.Errorf("cloudinary cloud_name is not configured")
	}

	form := url.Values{}
	form.Set("file", sourceURL)
	form.Set("public_id", logicalName)
	if p.cfg.UploadPreset != "" {
		form.Set("upload_preset", p.cfg.UploadPreset)
	}
	if p.cfg.Folder != "" {
		form.Set("folder", p.cfg.Folder)
	}

	endpoint := fmt.Sprintf("%s/%s/auto/upload", strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload asset: %w", err)
	}
	defer resp.Body.Close()

	var parsed uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("upload asset: %s", msg)
	}
	if parsed.SecureURL == "" {
		return "", fmt.Errorf("upload asset: response has no secure_url")
	}
	return parsed.SecureURL, nil
}
