package quota

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFollowupCounterFreeLimit(t *testing.T) {
	r := miniredis.RunT(t)
	counter, err := NewRedisFollowupCounter(r.Addr(), "", "test:followups", time.Hour)
	if err != nil {
		t.Fatalf("new counter: %v", err)
	}
	ctx := context.Background()

	if !counter.Allow(ctx, "s1", 1) {
		t.Fatal("first follow-up should be allowed")
	}
	if counter.Allow(ctx, "s1", 1) {
		t.Fatal("second follow-up should be denied for free tier")
	}
	if !counter.Allow(ctx, "s2", 1) {
		t.Fatal("counter must be scoped per session")
	}
}

func TestFollowupCounterUnlimited(t *testing.T) {
	r := miniredis.RunT(t)
	counter, err := NewRedisFollowupCounter(r.Addr(), "", "test:followups", time.Hour)
	if err != nil {
		t.Fatalf("new counter: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		if !counter.Allow(ctx, "s1", 0) {
			t.Fatalf("follow-up %d denied for unlimited tier", i)
		}
	}
}

func TestFollowupCounterRefund(t *testing.T) {
	r := miniredis.RunT(t)
	counter, err := NewRedisFollowupCounter(r.Addr(), "", "test:followups", time.Hour)
	if err != nil {
		t.Fatalf("new counter: %v", err)
	}
	ctx := context.Background()

	if !counter.Allow(ctx, "s1", 1) {
		t.Fatal("first follow-up should be allowed")
	}
	counter.Refund(ctx, "s1")
	if !counter.Allow(ctx, "s1", 1) {
		t.Fatal("refunded slot should be usable again")
	}
	if counter.Allow(ctx, "s1", 1) {
		t.Fatal("allowance must still cap out after the retry")
	}

	// Refunding a session with no counter is a no-op, not a credit.
	counter.Refund(ctx, "s2")
	if !counter.Allow(ctx, "s2", 1) {
		t.Fatal("fresh session should get its allowance")
	}
	if counter.Allow(ctx, "s2", 1) {
		t.Fatal("no-op refund must not grant an extra follow-up")
	}
}

func TestFollowupCounterFailsClosed(t *testing.T) {
	r := miniredis.RunT(t)
	counter, err := NewRedisFollowupCounter(r.Addr(), "", "test:followups", time.Hour)
	if err != nil {
		t.Fatalf("new counter: %v", err)
	}
	r.Close()
	if counter.Allow(context.Background(), "s1", 1) {
		t.Fatal("expected fail-closed when redis is unavailable")
	}
}

func TestFollowupCounterRequiresAddr(t *testing.T) {
	if _, err := NewRedisFollowupCounter("", "", "", 0); err == nil {
		t.Fatal("expected error without redis addr")
	}
}
