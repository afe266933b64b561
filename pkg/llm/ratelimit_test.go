package llm

import (
	"context"
	"testing"
	"time"
)

func TestWaitForSlotSpacing(t *testing.T) {
	limiter := NewRateLimiter(50 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		err := limiter.WaitForSlot(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got: %s", err)
		}
	}
	elapsed := time.Since(start)

	// First slot is immediate; the next two are spaced by the interval.
	if elapsed < 100*time.Millisecond {
		t.Errorf("Expected at least 100ms for 3 slots, got %s", elapsed)
	}
}

func TestWaitForSlotZeroInterval(t *testing.T) {
	limiter := NewRateLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		err := limiter.WaitForSlot(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got: %s", err)
		}
	}
	if time.Since(start) > time.Second {
		t.Error("Zero interval must not wait")
	}
}

func TestWaitForSlotContextCancelled(t *testing.T) {
	limiter := NewRateLimiter(10 * time.Second)

	// Consume the immediate slot so the next wait is long.
	err := limiter.WaitForSlot(context.Background())
	if err != nil {
		t.Fatalf("Expected no error on the first slot, got: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = limiter.WaitForSlot(ctx)
	if err == nil {
		t.Fatal("Expected a context error while waiting for a distant slot")
	}
}
