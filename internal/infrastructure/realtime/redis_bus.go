package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/pkg/logger"
)

// RedisBus 通过 Redis Pub/Sub 跨进程转发事件
// worker 进程只发布，网关进程运行 Relay 把事件送入本地 Hub
type RedisBus struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisBus 创建 Redis 事件总线
func NewRedisBus(rdb *redis.Client, prefix string) *RedisBus {
	return &RedisBus{rdb: rdb, prefix: prefix}
}

// Channel 项目对应的频道名
func (b *RedisBus) Channel(projectID string) string {
	return b.prefix + projectID
}

// Publish 发布事件信封
func (b *RedisBus) Publish(ctx context.Context, env *entity.EventEnvelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.Channel(env.ProjectID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Relay 订阅全部项目频道并转发给 local，直到 ctx 取消
func (b *RedisBus) Relay(ctx context.Context, local Publisher) error {
	pubsub := b.rdb.PSubscribe(ctx, b.prefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s*: %w", b.prefix, err)
	}
	logger.Info(ctx, "realtime relay started", "pattern", b.prefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			env, err := b.decode(msg.Channel, msg.Payload)
			if err != nil {
				logger.Warn(ctx, "dropping malformed realtime message", "channel", msg.Channel, "error", err.Error())
				continue
			}
			_ = local.Publish(ctx, env)
		}
	}
}

func (b *RedisBus) decode(channel, payload string) (*entity.EventEnvelope, error) {
	var env entity.EventEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, err
	}
	if env.ProjectID == "" {
		env.ProjectID = strings.TrimPrefix(channel, b.prefix)
	}
	return &env, nil
}
