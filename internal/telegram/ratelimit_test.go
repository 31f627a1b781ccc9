package telegram

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_FirstRequestImmediate(t *testing.T) {
	rl := NewRateLimiter(10.0, 1)

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected immediate response, got %v", elapsed)
	}
}

func TestRateLimiter_ContextCanceled(t *testing.T) {
	rl := NewRateLimiter(0.1, 1) // 1 request per 10 seconds

	// use up the burst
	_ = rl.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Error("expected context error, got nil")
	}
}

func TestRateLimiter_FloodWaitBlocks(t *testing.T) {
	rl := NewRateLimiter(100.0, 10)
	rl.SetFloodWait(1) // 1 second pause

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Error("expected wait to be blocked by flood pause")
	}
}

func TestCheckFloodWait(t *testing.T) {
	c := &Client{}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"unrelated error", context.DeadlineExceeded, 0},
		{"flood wait", errString("rpc error code 420: FLOOD_WAIT_15"), 15},
		{"flood wait with suffix", errString("rpc error code 420: FLOOD_WAIT_30 (caused by messages.GetHistory)"), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.checkFloodWait(tt.err); got != tt.want {
				t.Errorf("checkFloodWait() = %d, want %d", got, tt.want)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
