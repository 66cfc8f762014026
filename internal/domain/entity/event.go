// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventName 实时事件名，与客户端协议一致
type EventName string

const (
	EventTextChunk           EventName = "textChunk"
	EventGenerationStarted   EventName = "generationStarted"
	EventGenerationCompleted EventName = "generationCompleted"
	EventElementAdded        EventName = "elementAdded"
	EventInfo                EventName = "info"
	EventError               EventName = "error"
)

// StudioEvent 一次编排周期向项目观察者推送的事件
type StudioEvent interface {
	Name() EventName
	studioEvent()
}

// TextChunk 助手文本
type TextChunk struct {
	Content string `json:"content"`
}

// GenerationStarted 媒体生成开始
type GenerationStarted struct {
	ElementID string      `json:"elementId"`
	Type      ElementType `json:"type"`
}

// GenerationCompleted 媒体生成完成
type GenerationCompleted struct {
	ElementID string `json:"elementId"`
	AssetURL  string `json:"assetUrl"`
}

// ElementAdded 新元素写入
type ElementAdded struct {
	Element *Element `json:"element"`
}

// ElementPayload 实时事件中的元素形态，字段名与客户端一致（camelCase）
// REST 接口仍直接返回 Element
type ElementPayload struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"projectId"`
	Type         ElementType    `json:"type"`
	Content      string         `json:"content"`
	AssetURL     string         `json:"assetUrl,omitempty"`
	IsGenerating bool           `json:"isGenerating"`
	Order        int            `json:"order"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// NewElementPayload 由实体构造事件载荷
func NewElementPayload(el *Element) *ElementPayload {
	if el == nil {
		return nil
	}
	return &ElementPayload{
		ID:           el.ID,
		ProjectID:    el.ProjectID,
		Type:         el.Type,
		Content:      el.Content,
		AssetURL:     el.AssetURL,
		IsGenerating: el.IsGenerating,
		Order:        el.Order,
		Metadata:     el.Metadata,
		CreatedAt:    el.CreatedAt,
		UpdatedAt:    el.UpdatedAt,
	}
}

// Element 还原为实体
func (p *ElementPayload) Element() *Element {
	if p == nil {
		return nil
	}
	return &Element{
		ID:           p.ID,
		ProjectID:    p.ProjectID,
		Type:         p.Type,
		Content:      p.Content,
		AssetURL:     p.AssetURL,
		IsGenerating: p.IsGenerating,
		Order:        p.Order,
		Metadata:     p.Metadata,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

type elementAddedWire struct {
	Element *ElementPayload `json:"element"`
}

func (e ElementAdded) MarshalJSON() ([]byte, error) {
	return json.Marshal(elementAddedWire{Element: NewElementPayload(e.Element)})
}

func (e *ElementAdded) UnmarshalJSON(data []byte) error {
	var w elementAddedWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Element = w.Element.Element()
	return nil
}

// InfoEvent 状态提示
type InfoEvent struct {
	Message string `json:"message"`
}

// ErrorEvent 周期失败
type ErrorEvent struct {
	Message string `json:"message"`
}

func (TextChunk) Name() EventName           { return EventTextChunk }
func (GenerationStarted) Name() EventName   { return EventGenerationStarted }
func (GenerationCompleted) Name() EventName { return EventGenerationCompleted }
func (ElementAdded) Name() EventName        { return EventElementAdded }
func (InfoEvent) Name() EventName           { return EventInfo }
func (ErrorEvent) Name() EventName          { return EventError }

func (TextChunk) studioEvent()           {}
func (GenerationStarted) studioEvent()   {}
func (GenerationCompleted) studioEvent() {}
func (ElementAdded) studioEvent()        {}
func (InfoEvent) studioEvent()           {}
func (ErrorEvent) studioEvent()          {}

// EventEnvelope 事件在总线与 websocket 上的编码形式
type EventEnvelope struct {
	ProjectID string          `json:"projectId"`
	Event     EventName       `json:"event"`
	Data      json.RawMessage `json:"data"`
}

// EncodeEvent 将事件编码为信封
func EncodeEvent(projectID string, ev StudioEvent) (*EventEnvelope, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", ev.Name(), err)
	}
	return &EventEnvelope{ProjectID: projectID, Event: ev.Name(), Data: data}, nil
}

// Decode 还原信封中的事件
func (e *EventEnvelope) Decode() (StudioEvent, error) {
	var (
		ev  StudioEvent
		err error
	)
	switch e.Event {
	case EventTextChunk:
		var v TextChunk
		err = json.Unmarshal(e.Data, &v)
		ev = v
	case EventGenerationStarted:
		var v GenerationStarted
		err = json.Unmarshal(e.Data, &v)
		ev = v
	case EventGenerationCompleted:
		var v GenerationCompleted
		err = json.Unmarshal(e.Data, &v)
		ev = v
	case EventElementAdded:
		var v ElementAdded
		err = json.Unmarshal(e.Data, &v)
		ev = v
	case EventInfo:
		var v InfoEvent
		err = json.Unmarshal(e.Data, &v)
		ev = v
	case EventError:
		var v ErrorEvent
		err = json.Unmarshal(e.Data, &v)
		ev = v
	default:
		return nil, fmt.Errorf("unknown event %q", e.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s event: %w", e.Event, err)
	}
	return ev, nil
}
