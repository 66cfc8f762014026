package realtime

import (
	"context"

	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/pkg/logger"
)

// Sink 将编排事件编码后交给 Publisher
type Sink struct {
	pub Publisher
}

// NewSink 创建事件出口
func NewSink(pub Publisher) *Sink {
	return &Sink{pub: pub}
}

// Emit 发布失败只记录日志，不影响编排周期
func (s *Sink) Emit(ctx context.Context, projectID string, ev entity.StudioEvent) {
	env, err := entity.EncodeEvent(projectID, ev)
	if err != nil {
		logger.Error(ctx, "encode realtime event", err, "event", ev.Name())
		return
	}
	if err := s.pub.Publish(context.WithoutCancel(ctx), env); err != nil {
		logger.Error(ctx, "publish realtime event", err, "event", ev.Name())
	}
}
