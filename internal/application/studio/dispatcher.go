package studio

import (
	"context"
	"sync"
)

// InlineDispatcher 在当前进程内异步运行编排周期
type InlineDispatcher struct {
	orch   *Orchestrator
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewInlineDispatcher 创建进程内调度器
func NewInlineDispatcher(orch *Orchestrator) *InlineDispatcher {
	base, cancel := context.WithCancel(context.Background())
	return &InlineDispatcher{orch: orch, base: base, cancel: cancel}
}

// Dispatch 立即返回，周期在后台运行
// 周期继承请求 ctx 中的值但不随请求结束而取消，仅在 Shutdown 时取消
func (d *InlineDispatcher) Dispatch(ctx context.Context, projectID, prompt string) error {
	if err := d.base.Err(); err != nil {
		return err
	}
	cycleCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	unregister := context.AfterFunc(d.base, stop)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer stop()
		defer unregister()
		d.orch.HandlePrompt(cycleCtx, projectID, prompt)
	}()
	return nil
}

// Shutdown 等待进行中的周期结束，ctx 到期后取消剩余周期
func (d *InlineDispatcher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
