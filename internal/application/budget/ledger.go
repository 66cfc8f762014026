// Package budget 提供媒体生成的日/月消费账本
package budget

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"z-script-ai-api/pkg/errors"
	"z-script-ai-api/pkg/metrics"
)

// ExceededError 表示本次消费会突破日或月上限
type ExceededError struct {
	Reason string
}

func (e *ExceededError) Error() string {
	return e.Reason
}

// Unwrap 使 errors.Is(err, errors.ErrBudgetExceeded) 成立
func (e *ExceededError) Unwrap() error {
	return errors.ErrBudgetExceeded
}

// Limits 消费上限（美元）
type Limits struct {
	Daily   float64
	Monthly float64
}

// DefaultLimits 默认上限：日 5 美元，月 50 美元
var DefaultLimits = Limits{Daily: 5.0, Monthly: 50.0}

// WindowStatus 单个窗口的消费情况
type WindowStatus struct {
	Used       float64 `json:"used"`
	Limit      float64 `json:"limit"`
	Remaining  float64 `json:"remaining"`
	Percentage float64 `json:"percentage"`
}

// Status 账本快照
type Status struct {
	Daily   WindowStatus `json:"daily"`
	Monthly WindowStatus `json:"monthly"`
}

// Option 账本选项
type Option func(*Ledger)

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithLocation 指定判定日切换的时区
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// Ledger 进程内消费账本，所有方法并发安全
type Ledger struct {
	mu          sync.Mutex
	limits      Limits
	dailyUsed   float64
	monthlyUsed float64
	lastReset   string
	now         func() time.Time
	loc         *time.Location
}

// NewLedger 创建账本
func NewLedger(limits Limits, opts ...Option) *Ledger {
	l := &Ledger{
		limits: limits,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastReset = l.today()
	l.publish()
	return l
}

func (l *Ledger) today() string {
	return l.now().In(l.loc).Format(time.DateOnly)
}

// ResetDailyIfRolledOver 日期变化时清零当日消费
func (l *Ledger) ResetDailyIfRolledOver() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollLocked()
}

func (l *Ledger) rollLocked() {
	if today := l.today(); today != l.lastReset {
		l.dailyUsed = 0
		l.lastReset = today
		metrics.BudgetUsed.WithLabelValues("daily").Set(0)
	}
}

// CanAfford 判断 cost 是否可在两个上限内支付，不可支付时返回原因
func (l *Ledger) CanAfford(cost float64) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollLocked()
	return l.canAffordLocked(cost)
}

func (l *Ledger) canAffordLocked(cost float64) (bool, string) {
	if l.dailyUsed+cost > l.limits.Daily {
		return false, fmt.Sprintf("Daily budget limit reached ($%s). Used: $%.2f", formatLimit(l.limits.Daily), l.dailyUsed)
	}
	if l.monthlyUsed+cost > l.limits.Monthly {
		return false, fmt.Sprintf("Monthly budget limit reached ($%s). Used: $%.2f", formatLimit(l.limits.Monthly), l.monthlyUsed)
	}
	return true, ""
}

// Record 记入一笔消费，调用方需先通过 CanAfford
func (l *Ledger) Record(cost float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollLocked()
	l.recordLocked(cost)
}

func (l *Ledger) recordLocked(cost float64) {
	l.dailyUsed += cost
	l.monthlyUsed += cost
	l.publish()
}

// Reserve 在同一把锁内完成检查与记账，超限时返回 *ExceededError
func (l *Ledger) Reserve(cost float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollLocked()
	if ok, reason := l.canAffordLocked(cost); !ok {
		metrics.BudgetRefusedTotal.Inc()
		return &ExceededError{Reason: reason}
	}
	l.recordLocked(cost)
	return nil
}

// Refund 撤回一笔已预留但未发生的消费
func (l *Ledger) Refund(cost float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollLocked()
	l.dailyUsed = max(0, l.dailyUsed-cost)
	l.monthlyUsed = max(0, l.monthlyUsed-cost)
	l.publish()
}

// RemainingDaily 返回当日剩余额度
func (l *Ledger) RemainingDaily() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollLocked()
	return l.limits.Daily - l.dailyUsed
}

// Status 返回当前快照，不修改消费数据
func (l *Ledger) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollLocked()
	return Status{
		Daily:   window(l.dailyUsed, l.limits.Daily),
		Monthly: window(l.monthlyUsed, l.limits.Monthly),
	}
}

// ResetMonthly 由外部调度在月初触发
func (l *Ledger) ResetMonthly() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.monthlyUsed = 0
	l.publish()
}

func (l *Ledger) publish() {
	metrics.BudgetUsed.WithLabelValues("daily").Set(l.dailyUsed)
	metrics.BudgetUsed.WithLabelValues("monthly").Set(l.monthlyUsed)
}

func window(used, limit float64) WindowStatus {
	w := WindowStatus{Used: used, Limit: limit, Remaining: limit - used}
	if limit > 0 {
		w.Percentage = used / limit * 100
	}
	return w
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
