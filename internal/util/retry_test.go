package util

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		Factor:      1.1,
	}
}

func TestRetryPolicyDo(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		failUntil int
		wantErr   bool
		wantCalls int
	}{
		{
			name:      "succeeds first try",
			attempts:  3,
			failUntil: 0,
			wantErr:   false,
			wantCalls: 1,
		},
		{
			name:      "succeeds after two failures",
			attempts:  3,
			failUntil: 2,
			wantErr:   false,
			wantCalls: 3,
		},
		{
			name:      "exhausts attempts",
			attempts:  3,
			failUntil: 5,
			wantErr:   true,
			wantCalls: 3,
		},
		{
			name:      "zero attempts defaults to one",
			attempts:  0,
			failUntil: 5,
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := fastPolicy(tt.attempts).Do(context.Background(), func(ctx context.Context) error {
				calls++
				if calls <= tt.failUntil {
					return fmt.Errorf("attempt %d failed", calls)
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("Do() calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryPolicyDoCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastPolicy(3).Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("should not retry")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("Do() calls = %d, want 0", calls)
	}
}

func TestDoValue(t *testing.T) {
	calls := 0
	got, err := DoValue(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("DoValue() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("DoValue() = %q, want %q", got, "ok")
	}
	if calls != 2 {
		t.Errorf("DoValue() calls = %d, want 2", calls)
	}
}

func TestRetryWithContext(t *testing.T) {
	calls := 0
	got, err := RetryWithContext(context.Background(), 3, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("RetryWithContext() error = %v", err)
	}
	if got != 42 {
		t.Errorf("RetryWithContext() = %d, want 42", got)
	}
}
