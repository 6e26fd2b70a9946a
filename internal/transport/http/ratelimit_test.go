package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := newRateLimiter(2)
	limiter.now = func() time.Time { return now }

	if !limiter.allow() || !limiter.allow() {
		t.Fatal("first two messages should pass")
	}
	if limiter.allow() {
		t.Fatal("third message in the window should be limited")
	}

	now = now.Add(time.Minute)
	if !limiter.allow() {
		t.Fatal("new window should reset the counter")
	}
}

func TestRateLimiterUnlimited(t *testing.T) {
	limiter := newRateLimiter(0)
	for i := 0; i < 1000; i++ {
		if !limiter.allow() {
			t.Fatalf("message %d limited with no limit configured", i)
		}
	}

	var nilLimiter *rateLimiter
	if !nilLimiter.allow() {
		t.Fatal("nil limiter should allow")
	}
}
