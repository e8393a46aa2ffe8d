package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 50*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get("key1"); ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	c.Delete("key1")
	if _, ok := c.Get("key1"); ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	c.Set("category:1", "c1", 1*time.Second)
	c.Set("category:2", "c2", 1*time.Second)
	c.Set("room:1", "r1", 1*time.Second)
	c.Invalidate("category:")
	if _, ok := c.Get("category:1"); ok {
		t.Fatalf("expected category keys to be invalidated")
	}
	if _, ok := c.Get("category:2"); ok {
		t.Fatalf("expected category keys to be invalidated")
	}
	if _, ok := c.Get("room:1"); !ok {
		t.Fatalf("expected room:1 to still exist")
	}
}
