package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRowSetNoDuplicates(t *testing.T) {
	s := NewRowSet()

	if !s.Add("1 | Jane Doe | 4") {
		t.Error("first Add should return true")
	}
	if s.Add("1 | Jane Doe | 4") {
		t.Error("second Add of same text should return false")
	}
	if !s.Add("2 | John Roe | 9") {
		t.Error("Add of new text should return true")
	}
	if !s.Add("1 | Jane Doe | 4 ") {
		t.Error("texts are compared exactly")
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewDiscardLogger()}
	calls := 0
	err := r.Do(context.Background(), "op", func() error {
		calls++
		if calls < 2 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestRetryWrapsLastError(t *testing.T) {
	sentinel := errors.New("down")
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewDiscardLogger()}
	err := r.Do(context.Background(), "op", func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped sentinel, got %v", err)
	}
}

func TestThrottleSpacing(t *testing.T) {
	th := NewThrottle(50)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := th.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("3 waits took %v, want >= ~100ms", elapsed)
	}
}

func TestThrottleDisabled(t *testing.T) {
	th := NewThrottle(0)
	if err := th.Wait(context.Background()); err != nil {
		t.Errorf("disabled throttle returned %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d; want %d", tt.in, got, tt.want)
		}
	}
}
