package messaging

import (
	"context"
	"fmt"
)

// PromptRunner 执行一次编排周期
type PromptRunner interface {
	Run(ctx context.Context, projectID, prompt string)
}

// PromptRunnerFunc 函数适配
type PromptRunnerFunc func(ctx context.Context, projectID, prompt string)

func (f PromptRunnerFunc) Run(ctx context.Context, projectID, prompt string) { f(ctx, projectID, prompt) }

// PromptHandler 将队列消息交给编排器；周期内部的失败已转为实时事件，这里只拒绝格式错误的任务
func PromptHandler(runner PromptRunner) MessageHandler {
	return func(ctx context.Context, msg *Message) error {
		var job PromptJob
		if err := msg.UnmarshalPayload(&job); err != nil {
			return fmt.Errorf("decode prompt job: %w", err)
		}
		if job.ProjectID == "" {
			job.ProjectID = msg.ProjectID
		}
		if job.ProjectID == "" {
			return fmt.Errorf("prompt job %s has no project", msg.ID)
		}
		runner.Run(ctx, job.ProjectID, job.Prompt)
		return nil
	}
}
