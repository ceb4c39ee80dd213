package ecs

import (
	"errors"
	"testing"
)

func TestArenaLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := NewArena[string]()
			handles := make([]Handle, 0, c.create)
			for i := 0; i < c.create; i++ {
				handles = append(handles, a.Insert("v"))
			}
			if a.Len() != c.create {
				t.Fatalf("expected %d values, got %d", c.create, a.Len())
			}
			if c.destroyIndex >= 0 {
				if !a.Remove(handles[c.destroyIndex]) {
					t.Fatalf("Remove should return true for a live handle")
				}
				if a.Alive(handles[c.destroyIndex]) {
					t.Fatalf("handle should not be alive after removal")
				}
				if a.Remove(handles[c.destroyIndex]) {
					t.Fatalf("second Remove should return false")
				}
				if a.Len() != c.create-1 {
					t.Fatalf("expected %d values, got %d", c.create-1, a.Len())
				}
			}
		})
	}
}

func TestArenaStaleHandleFailsClosed(t *testing.T) {
	a := NewArena[int]()
	old := a.Insert(1)
	a.Remove(old)

	reused := a.Insert(2)
	if reused.id() != old.id() {
		t.Fatalf("expected slot %d to be reused, got %d", old.id(), reused.id())
	}
	if reused == old {
		t.Fatalf("reused slot should carry a new generation")
	}

	if v, ok := a.Get(old); ok || v != 0 {
		t.Fatalf("stale handle should return zero value and false, got %d %v", v, ok)
	}
	if _, err := a.Lookup(old); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle, got %v", err)
	}
	if err := a.Set(old, 5); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle from Set, got %v", err)
	}
	if v, ok := a.Get(reused); !ok || v != 2 {
		t.Fatalf("expected live handle to return 2, got %d %v", v, ok)
	}
}

func TestArenaZeroHandle(t *testing.T) {
	a := NewArena[int]()
	a.Insert(1)
	var zero Handle
	if zero.Valid() {
		t.Fatalf("zero handle should not be valid")
	}
	if _, ok := a.Get(zero); ok {
		t.Fatalf("zero handle should never resolve")
	}
}

func TestArenaEachOrder(t *testing.T) {
	a := NewArena[string]()
	h1 := a.Insert("a")
	a.Insert("b")
	a.Insert("c")
	a.Remove(h1)
	a.Insert("d")

	var got []string
	a.Each(func(_ Handle, v string) {
		got = append(got, v)
	})
	want := []string{"d", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %q at %d, got %q", want[i], i, got[i])
		}
	}
}

func TestEventQueueDrain(t *testing.T) {
	var q EventQueue[int]
	q.Push(1)
	q.Push(2)
	if q.Len() != 2 {
		t.Fatalf("expected 2 events, got %d", q.Len())
	}
	out := q.Drain()
	if len(out) != 2 || out[0] != 1 || out[1] != 2 {
		t.Fatalf("expected [1 2], got %v", out)
	}
	if q.Drain() != nil {
		t.Fatalf("expected empty queue after drain")
	}
}

func TestSchedulerOrder(t *testing.T) {
	var order []int
	s := NewScheduler[*[]int](
		SystemFunc[*[]int](func(o *[]int) { *o = append(*o, 1) }),
		SystemFunc[*[]int](func(o *[]int) { *o = append(*o, 2) }),
	)
	s.Add(nil)
	s.Add(SystemFunc[*[]int](func(o *[]int) { *o = append(*o, 3) }))
	s.Update(&order)

	if len(s.Systems()) != 3 {
		t.Fatalf("expected 3 systems, got %d", len(s.Systems()))
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("expected system %d to run at %d, got %d", i+1, i, v)
		}
	}
}
