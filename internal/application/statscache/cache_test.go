package statscache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[int](time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("empty cache returned a value")
	}
	if !c.Set("k", 42, c.Generation(), GroupTag("g1")) {
		t.Fatal("Set rejected a current generation")
	}
	v, ok := c.Get("k")
	if !ok || v != 42 {
		t.Errorf("Get = %v, %v", v, ok)
	}
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2024, 2, 19, 10, 0, 0, 0, time.UTC)
	c := New[string](time.Second).WithClock(func() time.Time { return now })
	c.Set("k", "v", c.Generation())

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

// TestCache_InvalidateByTag drops only entries with a matching tag.
func TestCache_InvalidateByTag(t *testing.T) {
	c := New[int](time.Minute)
	gen := c.Generation()
	c.Set("summary:e1", 1, gen, EnrollmentTag("e1"), GroupTag("g1"))
	c.Set("summary:e2", 2, gen, EnrollmentTag("e2"), GroupTag("g2"))
	c.Set("group:g1", 3, gen, GroupTag("g1"), DateTag("2024-02-19"))

	if n := c.Invalidate(GroupTag("g1")); n != 2 {
		t.Errorf("Invalidate dropped %d, want 2", n)
	}
	if _, ok := c.Get("summary:e2"); !ok {
		t.Error("unrelated entry was dropped")
	}
	if _, ok := c.Get("summary:e1"); ok {
		t.Error("tagged entry survived")
	}
	if n := c.Invalidate(DateTag("2024-02-19")); n != 0 {
		t.Errorf("second Invalidate dropped %d, want 0", n)
	}
}

// TestCache_StaleSetRejected discards a value loaded before an invalidation.
func TestCache_StaleSetRejected(t *testing.T) {
	c := New[int](time.Minute)
	gen := c.Generation()
	c.Invalidate(GroupTag("g1"))
	if c.Set("k", 1, gen, GroupTag("g1")) {
		t.Error("stale Set accepted")
	}
	if _, ok := c.Get("k"); ok {
		t.Error("stale value visible")
	}
}

func TestCache_Disabled(t *testing.T) {
	c := New[int](-1)
	if c.Set("k", 1, c.Generation()) {
		t.Error("disabled cache accepted Set")
	}
}
