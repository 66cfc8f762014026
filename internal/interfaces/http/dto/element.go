package dto

import (
	"errors"
	"strings"

	"z-script-ai-api/internal/domain/entity"
)

// UpdateElementRequest 编辑元素，未提供的字段保持不变
type UpdateElementRequest struct {
	Content      *string        `json:"content"`
	AssetURL     *string        `json:"asset_url"`
	IsGenerating *bool          `json:"is_generating"`
	Metadata     map[string]any `json:"metadata"`
}

// ApplyTo 将修改写入元素；设置资产地址即结束生成状态
func (r *UpdateElementRequest) ApplyTo(el *entity.Element) error {
	if r.Content != nil {
		if strings.TrimSpace(*r.Content) == "" {
			return errors.New("content must not be empty")
		}
		el.Content = *r.Content
	}
	if r.IsGenerating != nil {
		el.IsGenerating = *r.IsGenerating
	}
	if r.Metadata != nil {
		el.Metadata = r.Metadata
	}
	if r.AssetURL != nil && *r.AssetURL != "" {
		if r.IsGenerating != nil && *r.IsGenerating {
			return errors.New("element with an asset_url cannot be generating")
		}
		el.CompleteGeneration(*r.AssetURL)
	}
	if el.AssetURL != "" && el.IsGenerating {
		return errors.New("element with an asset_url cannot be generating")
	}
	return nil
}
