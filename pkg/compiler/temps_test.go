package compiler

import "testing"

func TestTempAllocator(t *testing.T) {
	t.Run("SmallestUnused", func(t *testing.T) {
		a := NewTempAllocator()
		t0 := a.Allocate()
		t1 := a.Allocate()
		t2 := a.Allocate()
		if t0 != "tempopvar0" || t1 != "tempopvar1" || t2 != "tempopvar2" {
			t.Fatalf("unexpected names %s %s %s", t0, t1, t2)
		}
		a.Release(t1)
		if got := a.Allocate(); got != "tempopvar1" {
			t.Errorf("expected tempopvar1 to be reused, got %s", got)
		}
		if got := a.Allocate(); got != "tempopvar3" {
			t.Errorf("expected tempopvar3, got %s", got)
		}
	})

	t.Run("ReleaseIsIdempotent", func(t *testing.T) {
		a := NewTempAllocator()
		name := a.Allocate()
		if !a.Release(name) {
			t.Errorf("first release of %s should report true", name)
		}
		if a.Release(name) {
			t.Errorf("second release of %s should be a no-op", name)
		}
		if a.Release("x") {
			t.Errorf("releasing a user variable should be a no-op")
		}
		if a.Live() != 0 {
			t.Errorf("expected no live temps, got %d", a.Live())
		}
	})

	t.Run("ReleaseExcept", func(t *testing.T) {
		a := NewTempAllocator()
		keep := a.Allocate()
		snap := a.Snapshot()
		a.Allocate()
		a.Allocate()
		if n := a.ReleaseExcept(snap); n != 2 {
			t.Errorf("expected 2 released, got %d", n)
		}
		if !a.IsLive(keep) || a.Live() != 1 {
			t.Errorf("expected only %s live, live=%d", keep, a.Live())
		}
	})
}

func TestIsTemp(t *testing.T) {
	tests := map[string]bool{
		"tempopvar0":   true,
		"tempopvar12":  true,
		"tempopvar":    false,
		"tempopvarx":   false,
		"x":            false,
		"mytempopvar0": false,
	}
	for name, want := range tests {
		if got := IsTemp(name); got != want {
			t.Errorf("IsTemp(%q) = %v, want %v", name, got, want)
		}
	}
}
