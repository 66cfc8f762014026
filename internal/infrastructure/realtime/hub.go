// Package realtime 将编排事件扇出给按项目订阅的实时连接
package realtime

import (
	"context"
	"sync"

	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/pkg/logger"
	"z-script-ai-api/pkg/metrics"
)

// Publisher 发布事件信封
type Publisher interface {
	Publish(ctx context.Context, env *entity.EventEnvelope) error
}

// Subscription 一个连接对某项目的订阅
type Subscription struct {
	ProjectID string
	C         <-chan *entity.EventEnvelope

	ch   chan *entity.EventEnvelope
	hub  *Hub
	once sync.Once
}

// Close 取消订阅，可重复调用
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub 进程内的项目事件中心
// 慢订阅者的缓冲区写满时丢弃新事件，不阻塞发布方
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

// NewHub 创建事件中心
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

// Subscribe 订阅项目事件
func (h *Hub) Subscribe(projectID string) *Subscription {
	ch := make(chan *entity.EventEnvelope, h.buffer)
	sub := &Subscription{ProjectID: projectID, C: ch, ch: ch, hub: h}

	h.mu.Lock()
	set, ok := h.subs[projectID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[projectID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	metrics.RealtimeSubscribers.Inc()
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.ProjectID]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.ProjectID)
	}
	close(sub.ch)
	metrics.RealtimeSubscribers.Dec()
}

// Publish 投递给项目的全部订阅者；没有订阅者时静默丢弃
func (h *Hub) Publish(ctx context.Context, env *entity.EventEnvelope) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[env.ProjectID] {
		select {
		case sub.ch <- env:
		default:
			logger.Warn(ctx, "realtime subscriber buffer full, dropping event", "event", env.Event)
		}
	}
	return nil
}

// Subscribers 项目当前订阅数
func (h *Hub) Subscribers(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[projectID])
}

// Close 关闭全部订阅，持有订阅的连接随之结束
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for projectID, set := range h.subs {
		for sub := range set {
			close(sub.ch)
			metrics.RealtimeSubscribers.Dec()
		}
		delete(h.subs, projectID)
	}
}
