// Package entity 定义领域实体
package entity

import (
	"time"
)

// ElementType 剧本元素类型
type ElementType string

const (
	ElementSceneHeading  ElementType = "SCENE_HEADING"
	ElementAction        ElementType = "ACTION"
	ElementCharacter     ElementType = "CHARACTER"
	ElementDialogue      ElementType = "DIALOGUE"
	ElementParenthetical ElementType = "PARENTHETICAL"
	ElementTransition    ElementType = "TRANSITION"
	ElementImage         ElementType = "IMAGE"
	ElementVideo         ElementType = "VIDEO"
	ElementText          ElementType = "TEXT"
)

// ScreenplayElementTypes 可由 add_script_element 创建的类型
var ScreenplayElementTypes = []ElementType{
	ElementSceneHeading,
	ElementAction,
	ElementCharacter,
	ElementDialogue,
	ElementParenthetical,
	ElementTransition,
}

// IsScreenplay 是否为剧本文字类元素
func (t ElementType) IsScreenplay() bool {
	for _, s := range ScreenplayElementTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Valid 是否为已知类型
func (t ElementType) Valid() bool {
	switch t {
	case ElementImage, ElementVideo, ElementText:
		return true
	}
	return t.IsScreenplay()
}

// Element 项目中有序的剧本元素
type Element struct {
	ID           string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID    string         `json:"project_id" gorm:"type:uuid;not null;uniqueIndex:idx_elements_project_order,priority:1"`
	Type         ElementType    `json:"type" gorm:"type:varchar(32);not null"`
	Content      string         `json:"content" gorm:"type:text;not null"`
	AssetURL     string         `json:"asset_url,omitempty" gorm:"type:text"`
	IsGenerating bool           `json:"is_generating" gorm:"not null;default:false"`
	Order        int            `json:"order" gorm:"column:order;not null;uniqueIndex:idx_elements_project_order,priority:2"`
	Metadata     map[string]any `json:"metadata,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Element) TableName() string {
	return "elements"
}

// NewElement 创建元素，order 由仓储在写入时分配
func NewElement(projectID string, typ ElementType, content string) *Element {
	now := time.Now()
	return &Element{
		ProjectID: projectID,
		Type:      typ,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewAssetElement 创建已完成生成的媒体元素
func NewAssetElement(projectID string, typ ElementType, content, assetURL string) *Element {
	el := NewElement(projectID, typ, content)
	el.AssetURL = assetURL
	return el
}

// CompleteGeneration 写入资产地址并结束生成状态
func (e *Element) CompleteGeneration(assetURL string) {
	e.AssetURL = assetURL
	e.IsGenerating = false
	e.UpdatedAt = time.Now()
}
