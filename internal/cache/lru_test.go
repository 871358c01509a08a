package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	// a was just used, so b is the oldest.
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
	st := c.Stats()
	if st.Hits != 2 || st.Misses != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.now)
	c.Set("k", "v")
	c.Set("k2", "v2")

	clock.advance(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired too early")
	}
	clock.advance(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("Size() = %d", c.Size())
	}
}

func TestLRUCache_NoTTL(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](0, 0).WithClock(clock.now)
	c.Set("k", 1)
	clock.advance(24 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry without TTL should not expire")
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("c1:2024-05", 1)
	c.Set("c1:2024-06", 2)
	c.Set("c10:2024-06", 3)
	c.Set("c2:2024-06", 4)

	if n := c.DeletePrefix("c1:"); n != 2 {
		t.Fatalf("DeletePrefix() = %d, want 2", n)
	}
	for _, k := range []string{"c10:2024-06", "c2:2024-06"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should survive", k)
		}
	}
	c.Delete("c2:2024-06")
	if c.Size() != 1 {
		t.Fatalf("Size() = %d", c.Size())
	}
}

func TestManager_CleanNowAndStop(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	a := NewLRUCache[int](10, time.Second).WithClock(clock.now)
	b := NewLRUCache[int](10, time.Second).WithClock(clock.now)
	a.Set("x", 1)
	b.Set("y", 2)
	b.Set("z", 3)

	m := NewManager()
	m.Register(a)
	m.Register(b)
	m.StartCleanup(time.Hour)

	clock.advance(2 * time.Second)
	if n := m.CleanNow(); n != 3 {
		t.Fatalf("CleanNow() = %d, want 3", n)
	}
	m.Stop()
	m.Stop()
}
