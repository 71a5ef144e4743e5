package inference

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterSpacesCalls(t *testing.T) {
	limiter := NewRateLimiter(20)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.WaitTurn(ctx); err != nil {
			t.Fatal(err)
		}
	}
	elapsed := time.Since(start)

	// Three turns at 20 rps: the third is scheduled 100ms after the first.
	if elapsed < 90*time.Millisecond {
		t.Fatalf("turns not spaced: elapsed=%v", elapsed)
	}
}

func TestRateLimiterHonorsContext(t *testing.T) {
	limiter := NewRateLimiter(1)
	if err := limiter.WaitTurn(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := limiter.WaitTurn(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatalf("cancelled wait blocked for %v", time.Since(start))
	}
}
