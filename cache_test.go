package arbor

import "testing"

func newTestCache() *Cache {
	c := NewCache()
	c.Define("a")
	c.Define("b", "a")
	c.Define("c", "b")
	c.Define("d", "a", "c")
	for _, n := range []string{"a", "b", "c", "d"} {
		c.Update(n, nil)
	}
	return c
}

func TestCacheDefineStartsInvalid(t *testing.T) {
	c := NewCache()
	c.Define("u", "v")
	u := c.Get("u")
	if u == nil {
		t.Fatal("Get returned nil for a defined unit")
	}
	if u.Valid || c.Test("u") {
		t.Error("freshly defined unit is valid")
	}
	deps := c.Dependencies("u")
	if len(deps) != 1 || deps[0] != "v" {
		t.Errorf("Dependencies = %v, want [v]", deps)
	}
}

func TestCacheUndefinedNames(t *testing.T) {
	c := NewCache()
	if c.Get("missing") != nil {
		t.Error("Get on undefined unit should be nil")
	}
	if c.Test("missing") {
		t.Error("Test on undefined unit should be false")
	}
	// Silent no-ops.
	c.Update("missing", Fields{"k": 1})
	c.Invalidate("missing")
	if c.Get("missing") != nil {
		t.Error("Update created an undefined unit")
	}
}

func TestCacheUpdateMerges(t *testing.T) {
	c := NewCache()
	c.Define("u")
	c.Update("u", Fields{"a": 1, "b": 2})
	c.Update("u", Fields{"b": 3, "c": 4})
	f := c.Get("u").Fields
	if f["a"] != 1 || f["b"] != 3 || f["c"] != 4 {
		t.Errorf("Fields = %v, want a=1 b=3 c=4", f)
	}
	if !c.Test("u") {
		t.Error("Update did not mark the unit valid")
	}
}

func TestCacheRedefineResets(t *testing.T) {
	c := NewCache()
	c.Define("u", "x")
	c.Update("u", Fields{"k": 1})
	c.Define("u", "y")
	if c.Test("u") {
		t.Error("redefined unit is still valid")
	}
	if deps := c.Dependencies("u"); len(deps) != 1 || deps[0] != "y" {
		t.Errorf("Dependencies = %v, want [y]", deps)
	}
}

func TestCacheCascade(t *testing.T) {
	c := newTestCache()
	c.Invalidate("a")
	for _, n := range []string{"a", "b", "c", "d"} {
		if c.Test(n) {
			t.Errorf("%s still valid after invalidating a", n)
		}
	}
}

func TestCacheCascadeStopsAtUnrelated(t *testing.T) {
	c := newTestCache()
	c.Define("e")
	c.Update("e", nil)
	c.Invalidate("c")
	if !c.Test("a") || !c.Test("b") || !c.Test("e") {
		t.Error("invalidating c touched an upstream or unrelated unit")
	}
	if c.Test("d") {
		t.Error("d depends on c and should be invalid")
	}
}

func TestCacheInvalidateIdempotent(t *testing.T) {
	c := newTestCache()
	count := 0
	c.On(CacheInvalidate, func(CacheEvent) { count++ })

	c.Invalidate("a")
	first := count
	if first != 4 {
		t.Errorf("first invalidation emitted %d events, want 4", first)
	}
	c.Invalidate("a")
	c.Invalidate("b", "d")
	if count != first {
		t.Errorf("repeat invalidation emitted %d more events", count-first)
	}
}

func TestCacheCascadeThroughInvalidUnit(t *testing.T) {
	c := NewCache()
	c.Define("a", "b")
	c.Define("b")
	c.Update("a", nil)

	// b was never computed, but a still depends on it.
	c.Invalidate("b")
	if c.Test("a") {
		t.Error("a should be invalid after invalidating its dependency b")
	}
}

func TestCacheCascadeEmitsOnlyForValidUnits(t *testing.T) {
	c := newTestCache()
	c.Invalidate("b")
	c.Update("c", nil)

	var got []string
	c.On(CacheInvalidate, func(ev CacheEvent) { got = append(got, ev.Unit) })
	c.Invalidate("b")
	if c.Test("c") {
		t.Error("c should be invalid again")
	}
	if len(got) != 1 || got[0] != "c" {
		t.Errorf("events = %v, want [c]", got)
	}
}

func TestCacheCycleTerminates(t *testing.T) {
	c := NewCache()
	c.Define("p", "q")
	c.Define("q", "p")
	c.Update("p", nil)
	c.Update("q", nil)
	c.Invalidate("p")
	if c.Test("p") || c.Test("q") {
		t.Error("cyclic units should both be invalid")
	}
}

func TestCacheListeners(t *testing.T) {
	c := NewCache()
	c.Define("u")

	var updates, invalidations []string
	offU := c.On(CacheUpdate, func(ev CacheEvent) { updates = append(updates, ev.Unit) })
	c.On(CacheInvalidate, func(ev CacheEvent) { invalidations = append(invalidations, ev.Unit) })

	c.Update("u", nil)
	c.Invalidate("u")
	if len(updates) != 1 || updates[0] != "u" {
		t.Errorf("updates = %v", updates)
	}
	if len(invalidations) != 1 || invalidations[0] != "u" {
		t.Errorf("invalidations = %v", invalidations)
	}

	offU()
	offU()
	c.Update("u", nil)
	if len(updates) != 1 {
		t.Errorf("listener still called after off: %v", updates)
	}
}

func TestCacheListenerUnsubscribesDuringEmit(t *testing.T) {
	c := NewCache()
	c.Define("u")
	calls := 0
	var off func()
	off = c.On(CacheUpdate, func(CacheEvent) {
		calls++
		off()
	})
	c.Update("u", nil)
	c.Update("u", nil)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
