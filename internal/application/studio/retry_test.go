package studio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
	if got := p.Delay(1); got != 2*time.Second {
		t.Fatalf("Delay(1) = %v", got)
	}
	if got := p.Delay(2); got != 4*time.Second {
		t.Fatalf("Delay(2) = %v", got)
	}
}

func TestRunWithRetryStates(t *testing.T) {
	permanent := errors.New("bad request")

	cases := []struct {
		name     string
		errs     []error
		state    RetryState
		attempts int
		sleeps   int
	}{
		{"first try", []error{nil}, StateSucceeded, 1, 0},
		{"recovers", []error{errQuota, errQuota, nil}, StateSucceeded, 3, 2},
		{"exhausted", []error{errQuota, errQuota, errQuota}, StateDegraded, 3, 2},
		{"permanent", []error{errQuota, permanent}, StateFailed, 2, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sleeper := &recordingSleeper{}
			calls := 0
			out := RunWithRetry(context.Background(), DefaultRetryPolicy, sleeper, func(context.Context) (int, error) {
				err := tc.errs[calls]
				calls++
				if err != nil {
					return 0, err
				}
				return 42, nil
			})
			if out.State != tc.state || out.Attempts != tc.attempts || len(sleeper.delays) != tc.sleeps {
				t.Fatalf("outcome = %+v, sleeps = %d", out, len(sleeper.delays))
			}
			if out.State == StateSucceeded && out.Value != 42 {
				t.Fatalf("value = %d", out.Value)
			}
			if out.State == StateFailed && !errors.Is(out.Err, permanent) {
				t.Fatalf("err = %v", out.Err)
			}
		})
	}
}

func TestRunWithRetrySkipsCallOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := RunWithRetry(ctx, DefaultRetryPolicy, TimerSleeper, func(context.Context) (string, error) {
		t.Fatal("call must not run on a canceled context")
		return "", nil
	})
	if out.State != StateFailed || !errors.Is(out.Err, context.Canceled) {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestTimerSleeperHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := TimerSleeper.Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
