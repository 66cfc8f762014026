package studio

import (
	"context"
	"time"

	"z-script-ai-api/internal/domain/service"
	"z-script-ai-api/pkg/metrics"
)

// RetryState 重试状态机的状态
type RetryState int

const (
	StateAttempting RetryState = iota
	StateSucceeded
	StateDegraded
	StateFailed
)

func (s RetryState) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateDegraded:
		return "degraded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// RetryPolicy 首轮模型调用的重试策略
// 第 n 次尝试遇到限流后等待 BaseDelay * 2^n 再尝试下一次
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy 3 次尝试，间隔 2s、4s
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

// Delay 返回第 attempt 次（从 1 开始）失败后的等待时间
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

// Sleeper 可注入的等待实现
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc 函数适配
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// TimerSleeper 基于 time.Timer，可被 ctx 取消
var TimerSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// RetryOutcome 状态机终态
type RetryOutcome[T any] struct {
	State    RetryState
	Value    T
	Attempts int
	Err      error
}

// retryMachine 显式状态机：Attempting(n) -> Succeeded | Degraded | Failed
type retryMachine[T any] struct {
	policy  RetryPolicy
	sleeper Sleeper
	state   RetryState
	attempt int
	value   T
	err     error
}

// RunWithRetry 执行 call 直到成功、限流耗尽或遇到不可重试错误
func RunWithRetry[T any](ctx context.Context, policy RetryPolicy, sleeper Sleeper, call func(context.Context) (T, error)) RetryOutcome[T] {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if sleeper == nil {
		sleeper = TimerSleeper
	}
	m := &retryMachine[T]{policy: policy, sleeper: sleeper, state: StateAttempting, attempt: 1}
	for m.state == StateAttempting {
		m.step(ctx, call)
	}
	return RetryOutcome[T]{State: m.state, Value: m.value, Attempts: m.attempt, Err: m.err}
}

func (m *retryMachine[T]) step(ctx context.Context, call func(context.Context) (T, error)) {
	if err := ctx.Err(); err != nil {
		m.fail(err)
		return
	}

	v, err := call(ctx)
	switch {
	case err == nil:
		m.value = v
		m.state = StateSucceeded
	case !service.IsRateLimited(err):
		m.fail(err)
	case m.attempt >= m.policy.MaxAttempts:
		m.err = err
		m.state = StateDegraded
	default:
		if serr := m.sleeper.Sleep(ctx, m.policy.Delay(m.attempt)); serr != nil {
			m.fail(serr)
			return
		}
		metrics.ModelRetryTotal.Inc()
		m.attempt++
	}
}

func (m *retryMachine[T]) fail(err error) {
	m.err = err
	m.state = StateFailed
}
