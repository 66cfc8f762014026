package budget

import (
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "z-script-ai-api/pkg/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLedger(limits Limits) (*Ledger, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)}
	return NewLedger(limits, WithClock(clock.Now), WithLocation(time.UTC)), clock
}

func TestCanAffordDailyLimit(t *testing.T) {
	l, _ := newTestLedger(DefaultLimits)
	l.Record(4.5)

	if ok, _ := l.CanAfford(0.5); !ok {
		t.Fatalf("exactly reaching the daily cap must be affordable")
	}
	ok, reason := l.CanAfford(0.51)
	if ok {
		t.Fatalf("expected refusal")
	}
	if want := "Daily budget limit reached ($5). Used: $4.50"; reason != want {
		t.Fatalf("reason = %q, want %q", reason, want)
	}
}

func TestCanAffordMonthlyLimit(t *testing.T) {
	l, clock := newTestLedger(Limits{Daily: 5, Monthly: 8})
	l.Record(5)
	clock.Advance(2 * time.Hour)
	l.Record(2.5)

	ok, reason := l.CanAfford(1)
	if ok {
		t.Fatalf("expected monthly refusal")
	}
	if want := "Monthly budget limit reached ($8). Used: $7.50"; reason != want {
		t.Fatalf("reason = %q, want %q", reason, want)
	}
}

func TestDayRolloverResetsDailyOnly(t *testing.T) {
	l, clock := newTestLedger(DefaultLimits)
	l.Record(3)
	clock.Advance(90 * time.Minute)

	st := l.Status()
	if st.Daily.Used != 0 {
		t.Fatalf("daily used after rollover = %v, want 0", st.Daily.Used)
	}
	if st.Monthly.Used != 3 {
		t.Fatalf("monthly used = %v, want 3", st.Monthly.Used)
	}
	if st.Daily.Remaining != 5 {
		t.Fatalf("daily remaining = %v", st.Daily.Remaining)
	}
}

func TestStatusIsIdempotent(t *testing.T) {
	l, _ := newTestLedger(DefaultLimits)
	l.Record(1.25)
	first := l.Status()
	second := l.Status()
	if first != second {
		t.Fatalf("status changed between calls: %+v vs %+v", first, second)
	}
	if first.Daily.Percentage != 25 {
		t.Fatalf("daily percentage = %v, want 25", first.Daily.Percentage)
	}
	if first.Monthly.Remaining != 48.75 {
		t.Fatalf("monthly remaining = %v", first.Monthly.Remaining)
	}
}

func TestReserveRefusesWithoutRecording(t *testing.T) {
	l, _ := newTestLedger(DefaultLimits)
	if err := l.Reserve(4); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	err := l.Reserve(2)
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("err = %v, want *ExceededError", err)
	}
	if !errors.Is(err, apperrors.ErrBudgetExceeded) || apperrors.AsAppError(err).HTTPStatus != 402 {
		t.Fatalf("refusal must map to the budget exceeded code")
	}
	if got := l.Status().Daily.Used; got != 4 {
		t.Fatalf("daily used = %v, refusal must not record", got)
	}
}

func TestReserveConcurrentNeverExceedsCap(t *testing.T) {
	l, _ := newTestLedger(DefaultLimits)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Reserve(0.25)
		}()
	}
	wg.Wait()
	if got := l.Status().Daily.Used; got > 5 {
		t.Fatalf("daily used = %v exceeds cap", got)
	}
	if got := l.Status().Daily.Used; got != 5 {
		t.Fatalf("daily used = %v, want exactly 5", got)
	}
}

func TestZeroCostAlwaysAffordableUnderCap(t *testing.T) {
	l, _ := newTestLedger(DefaultLimits)
	l.Record(5)
	if ok, _ := l.CanAfford(0); !ok {
		t.Fatalf("zero cost at the cap must be affordable")
	}
}

func TestResetMonthlyAndRefund(t *testing.T) {
	l, _ := newTestLedger(DefaultLimits)
	l.Record(2)
	l.Refund(0.5)
	if st := l.Status(); st.Daily.Used != 1.5 || st.Monthly.Used != 1.5 {
		t.Fatalf("after refund: %+v", st)
	}
	l.ResetMonthly()
	st := l.Status()
	if st.Monthly.Used != 0 || st.Daily.Used != 1.5 {
		t.Fatalf("after monthly reset: %+v", st)
	}
	if l.RemainingDaily() != 3.5 {
		t.Fatalf("remaining daily = %v", l.RemainingDaily())
	}
}
