package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestExecuteCallsOperationOnce(t *testing.T) {
	exec := NewExecutor(Config{Enabled: true, MinRequests: 10})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errTemp
	}, nil)
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		Enabled:          true,
		MinRequests:      2,
		FailureRatio:     0.5,
		OpenTimeout:      50 * time.Millisecond,
		HalfOpenMaxCalls: 1,
	})

	errTemp := errors.New("temporary")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, nil)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if exec.State("op") != gobreaker.StateOpen.String() {
		t.Fatalf("expected open breaker, got %s", exec.State("op"))
	}
	if exec.State("other") != gobreaker.StateClosed.String() {
		t.Fatalf("expected untouched breaker to be closed")
	}
}

func TestExecuteIgnoresFilteredFailures(t *testing.T) {
	exec := NewExecutor(Config{Enabled: true, MinRequests: 1, FailureRatio: 0.1})
	errClient := errors.New("bad request")
	ignore := func(err error) bool { return !errors.Is(err, errClient) }

	for i := 0; i < 3; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errClient
		}, ignore)
		if !errors.Is(err, errClient) {
			t.Fatalf("expected client error, got %v", err)
		}
	}
	if exec.State("op") != gobreaker.StateClosed.String() {
		t.Fatalf("expected breaker to stay closed, got %s", exec.State("op"))
	}
}

func TestExecuteDisabledBreakerPassesThrough(t *testing.T) {
	exec := NewExecutor(Config{Enabled: false, MinRequests: 1, FailureRatio: 0.1})
	errTemp := errors.New("temporary")
	calls := 0
	for i := 0; i < 5; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error {
			calls++
			return errTemp
		}, nil)
	}
	if calls != 5 {
		t.Fatalf("expected every call to reach the operation, got %d", calls)
	}
}

func TestExecuteHonoursCancelledContext(t *testing.T) {
	exec := NewExecutor(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := exec.Execute(ctx, "op", func(context.Context) error {
		t.Fatalf("operation must not run on cancelled context")
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
