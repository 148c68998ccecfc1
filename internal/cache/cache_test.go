package cache_test

import (
	"context"
	"testing"
	"time"

	"secdash/internal/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](1 * time.Minute)

	c.Set("key1", "value1")

	got, found := c.Get("key1")
	if !found {
		t.Error("expected key1 to be found")
	}
	if got != "value1" {
		t.Errorf("expected value1, got %v", got)
	}
}

func TestCache_GetMissing(t *testing.T) {
	c := cache.New[int](1 * time.Minute)

	got, found := c.Get("nonexistent")
	if found {
		t.Error("expected nonexistent key to not be found")
	}
	if got != 0 {
		t.Errorf("expected zero value, got %v", got)
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](10 * time.Millisecond)

	c.Set("key1", "value1")

	time.Sleep(20 * time.Millisecond)

	_, found := c.Get("key1")
	if found {
		t.Error("expected key1 to be expired")
	}
}

func TestCache_ZeroTTLStoresNothing(t *testing.T) {
	c := cache.New[string](0)

	c.Set("key1", "value1")

	if _, found := c.Get("key1"); found {
		t.Error("expected zero TTL cache to stay empty")
	}
	if c.Len() != 0 {
		t.Errorf("expected no entries, got %d", c.Len())
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := cache.New[string](1 * time.Minute)

	c.Set("key1", "value1")
	c.Invalidate("key1")

	_, found := c.Get("key1")
	if found {
		t.Error("expected key1 to be invalidated")
	}
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c := cache.New[string](1 * time.Minute)

	c.Set("users|admin", "a")
	c.Set("users|", "b")
	c.Set("records|apk-protect", "c")
	c.InvalidatePrefix("users|")

	if _, found := c.Get("users|admin"); found {
		t.Error("expected users|admin to be invalidated")
	}
	if _, found := c.Get("users|"); found {
		t.Error("expected users| to be invalidated")
	}
	if _, found := c.Get("records|apk-protect"); !found {
		t.Error("expected unrelated key to remain")
	}
}

func TestCache_Clear(t *testing.T) {
	c := cache.New[string](1 * time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Clear()

	_, found1 := c.Get("key1")
	_, found2 := c.Get("key2")
	if found1 || found2 {
		t.Error("expected all keys to be cleared")
	}
}

func TestCache_Cleanup(t *testing.T) {
	c := cache.New[string](10 * time.Millisecond)

	c.Set("key1", "value1")
	c.Set("key2", "value2")

	time.Sleep(20 * time.Millisecond)

	c.Set("key3", "value3")

	c.Cleanup()

	_, found1 := c.Get("key1")
	_, found2 := c.Get("key2")
	_, found3 := c.Get("key3")

	if found1 || found2 {
		t.Error("expected expired keys to be cleaned up")
	}
	if !found3 {
		t.Error("expected fresh key to remain after cleanup")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after cleanup, got %d", c.Len())
	}
}

func TestCache_StartJanitor(t *testing.T) {
	c := cache.New[string](5 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Set("key1", "value1")
	c.StartJanitor(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Errorf("expected janitor to remove expired entries, got %d", c.Len())
	}
}
