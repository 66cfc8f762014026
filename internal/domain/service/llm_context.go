// Package service 定义跨层共享的领域上下文
package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyStage    llmCtxKey = "llm_stage"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
)

// 模型调用阶段
const (
	StageToolSelection = "tool_selection"
	StageFollowUp      = "follow_up"
)

const unknownLabel = "unknown"

// WithStage 标记当前模型调用所处的编排阶段
func WithStage(ctx context.Context, stage string) context.Context {
	return withLabel(ctx, llmCtxKeyStage, stage)
}

// WithProvider 标记当前模型提供商
func WithProvider(ctx context.Context, provider string) context.Context {
	return withLabel(ctx, llmCtxKeyProvider, provider)
}

// WithStageProvider 同时标记阶段与提供商
func WithStageProvider(ctx context.Context, stage, provider string) context.Context {
	return WithProvider(WithStage(ctx, stage), provider)
}

// StageFromContext 读取阶段，缺省为 unknown
func StageFromContext(ctx context.Context) string {
	return labelFromContext(ctx, llmCtxKeyStage)
}

// ProviderFromContext 读取提供商，缺省为 unknown
func ProviderFromContext(ctx context.Context) string {
	return labelFromContext(ctx, llmCtxKeyProvider)
}

func withLabel(ctx context.Context, key llmCtxKey, value string) context.Context {
	if ctx == nil {
		return nil
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func labelFromContext(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return unknownLabel
	}
	s, ok := ctx.Value(key).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return unknownLabel
	}
	return s
}
