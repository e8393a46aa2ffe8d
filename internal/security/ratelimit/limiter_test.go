package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("user-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("user-1") {
		t.Fatal("4th request should be rejected")
	}
}

func TestKeysIsolated(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	if !l.Allow("user-1") {
		t.Fatal("first request for user-1 should be allowed")
	}
	if !l.Allow("user-2") {
		t.Fatal("first request for user-2 should be allowed")
	}
	if l.Allow("user-1") {
		t.Fatal("second request for user-1 should be rejected")
	}
}

func TestWindowResets(t *testing.T) {
	l := NewLimiter(1, 20*time.Millisecond)
	if !l.Allow("user-1") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("user-1") {
		t.Fatal("second request within window should be rejected")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("user-1") {
		t.Fatal("request after window reset should be allowed")
	}
}

func TestEmptyKeyNeverLimited(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	for i := 0; i < 10; i++ {
		if !l.Allow("") {
			t.Fatal("empty key must never be limited")
		}
	}
}
