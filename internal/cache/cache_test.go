package cache

import (
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[[]string](2, time.Minute)

	c.Set("a", []string{"x"})
	got, ok := c.Get("a")
	if !ok || len(got) != 1 || got[0] != "x" {
		t.Fatalf("Get(a) = %v, %v", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("unexpected hit for missing key")
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should still be cached")
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](4, time.Minute)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	c.Set("b", 2)

	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("Size() = %d", c.Size())
	}
}

func TestLRUCacheSetRestartsTTL(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	c := NewLRUCache[[][]string](8, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("Gastos", [][]string{{"old"}})
	now = now.Add(45 * time.Second)
	c.Set("Gastos", [][]string{{"new"}})
	now = now.Add(45 * time.Second)

	got, ok := c.Get("Gastos")
	if !ok || got[0][0] != "new" {
		t.Fatalf("Get(Gastos) = %v, %v", got, ok)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d", c.Size())
	}
}

func TestLRUCacheDelete(t *testing.T) {
	c := NewLRUCache[int](0, time.Minute)
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("never-set")
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be gone")
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	short := NewLRUCache[int](4, 10*time.Millisecond)
	long := NewLRUCache[int](4, time.Hour)
	short.Set("a", 1)
	long.Set("b", 2)

	m := NewManager()
	m.Register(short)
	m.Register(long)
	m.Register(nil)

	time.Sleep(20 * time.Millisecond)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("CleanAll() = %d, want 1", n)
	}
	if long.Size() != 1 {
		t.Fatal("unexpired entry was removed")
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager()
	m.StartCleanup(5 * time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	m.Stop()
	m.Stop()

	idle := NewManager()
	idle.Stop()
}
