package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/devsocial/internal/types"
)

func TestRetryPolicyClassification(t *testing.T) {
	p := DefaultRetryPolicy()

	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"unknown host", errors.New("dial tcp: lookup db.example.supabase.co: no such host"), true},
		{"deadline", types.Wrap(types.KindInternal, context.DeadlineExceeded, "create post: store call timed out"), false},
		{"timeout text", errors.New("get user: store call timed out"), false},
		{"connection reset", errors.New("read tcp: connection reset by peer"), false},
		{"unique violation", errors.New("(23505) duplicate key value violates unique constraint"), false},
		{"postgrest error", errors.New("(PGRST301) JWT expired"), false},
		{"tagged conflict", types.E(types.KindConflict, "already following this user"), false},
		{"unknown", errors.New("something odd"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.isRetryable(tt.err); got != tt.retryable {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestRetryPolicyBackoffCap(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 10, InitialDelay: time.Second, Multiplier: 4, MaxDelay: 5 * time.Second}
	if d := p.NextDelay(1); d != time.Second {
		t.Errorf("first delay = %s, want 1s", d)
	}
	if d := p.NextDelay(8); d != 5*time.Second {
		t.Errorf("late delay = %s, want capped at 5s", d)
	}
}

func TestRetryPolicyExecute(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}

	calls := 0
	err := p.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestTimedOutWriteIsNotRetried(t *testing.T) {
	s := &Store{timeout: 10 * time.Millisecond, retry: DefaultRetryPolicy()}

	attempts := 0
	err := s.do(context.Background(), "create post", func() error {
		attempts++
		time.Sleep(50 * time.Millisecond)
		return nil
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
	if attempts != 1 {
		t.Fatalf("write executed %d times after timeout, want 1", attempts)
	}
}

func TestRetryPolicyStopsOnPermanent(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}

	calls := 0
	err := p.Execute(context.Background(), func() error {
		calls++
		return errors.New("(23505) duplicate key value")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("permanent error retried: %d attempts", calls)
	}
}
