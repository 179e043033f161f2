package cache

import (
	"testing"
	"time"
)

func TestLRUGetSetDelete(t *testing.T) {
	c := NewLRUCache[[]string](4, time.Minute)
	c.Set("2024-03", []string{"a"})

	got, ok := c.Get("2024-03")
	if !ok || len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected get: %v %v", got, ok)
	}
	c.Delete("2024-03")
	if _, ok := c.Get("2024-03"); ok {
		t.Fatalf("expected miss after delete")
	}
	c.Delete("missing")
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(30 * time.Second)
	c.Set("b", 3)
	now = now.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be expired")
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Fatalf("expected refreshed b=3, got %v %v", v, ok)
	}
	now = now.Add(time.Hour)
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}
