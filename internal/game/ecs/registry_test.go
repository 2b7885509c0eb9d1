package ecs

import "testing"

type position struct{ X, Y int }
type velocity struct{ DX, DY int }
type tag struct{}

func TestCreateDestroyReusesSlotWithNewGeneration(t *testing.T) {
	r := NewRegistry()

	a := r.Create()
	b := r.Create()
	if a == b {
		t.Fatalf("expected distinct entities, got %v twice", a)
	}

	r.Destroy(a)
	if r.Valid(a) {
		t.Errorf("destroyed entity %v is still valid", a)
	}

	c := r.Create()
	if c.Index != a.Index {
		t.Errorf("expected slot %d to be reused, got %d", a.Index, c.Index)
	}
	if c.Generation == a.Generation {
		t.Errorf("reused slot kept generation %d", c.Generation)
	}
	if r.Valid(a) {
		t.Errorf("stale handle %v became valid again", a)
	}
	if !r.Valid(b) || !r.Valid(c) {
		t.Errorf("live entities reported invalid")
	}
	if got := r.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestDestroyRemovesAllComponents(t *testing.T) {
	r := NewRegistry()
	e := r.Create()
	Add(r, e, position{X: 1, Y: 2})
	Add(r, e, velocity{DX: 3})

	r.Destroy(e)

	if Storage[position](r).Len() != 0 || Storage[velocity](r).Len() != 0 {
		t.Errorf("components survived entity destruction")
	}
}

func TestStaleHandleDoesNotSeeNewComponents(t *testing.T) {
	r := NewRegistry()
	old := r.Create()
	r.Destroy(old)

	e := r.Create()
	Add(r, e, position{X: 5})

	if Get[position](r, old) != nil {
		t.Errorf("stale handle sees the component of the new entity")
	}
}

func TestStoreRemoveKeepsOtherComponents(t *testing.T) {
	s := NewStore[position]()
	r := NewRegistry()

	var entities []Entity
	for i := 0; i != 5; i++ {
		e := r.Create()
		entities = append(entities, e)
		s.Add(e, position{X: i})
	}

	s.Remove(entities[1])

	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}
	for i, e := range entities {
		p := s.Get(e)
		if i == 1 {
			if p != nil {
				t.Errorf("removed component still present")
			}
			continue
		}
		if p == nil || p.X != i {
			t.Errorf("component of entity %d = %v, want X=%d", i, p, i)
		}
	}
}

func TestEachAllowsRemovingCurrent(t *testing.T) {
	r := NewRegistry()
	for i := 0; i != 6; i++ {
		Add(r, r.Create(), position{X: i})
	}

	visited := 0
	Each(r, func(e Entity, p *position) {
		visited++
		if p.X%2 == 0 {
			Remove[position](r, e)
		}
	})

	if visited != 6 {
		t.Errorf("visited %d components, want 6", visited)
	}
	if got := Storage[position](r).Len(); got != 3 {
		t.Errorf("%d components left, want 3", got)
	}
}

func TestViewIntersection(t *testing.T) {
	r := NewRegistry()

	both := r.Create()
	Add(r, both, position{X: 1})
	Add(r, both, velocity{DX: 1})

	onlyPosition := r.Create()
	Add(r, onlyPosition, position{X: 2})

	for i := 0; i != 3; i++ {
		e := r.Create()
		Add(r, e, velocity{DX: 7})
	}

	var seen []Entity
	View2(r, func(e Entity, p *position, v *velocity) {
		seen = append(seen, e)
	})

	if len(seen) != 1 || seen[0] != both {
		t.Errorf("View2 visited %v, want only %v", seen, both)
	}

	Add(r, both, tag{})
	count := 0
	View3(r, func(e Entity, _ *position, _ *velocity, _ *tag) {
		count++
	})
	if count != 1 {
		t.Errorf("View3 visited %d entities, want 1", count)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	e := r.Create()
	Add(r, e, position{X: 1})

	c := r.Clone()
	Get[position](c, e).X = 42
	c.Destroy(e)

	if p := Get[position](r, e); p == nil || p.X != 1 {
		t.Errorf("original modified through clone: %v", p)
	}
	if !r.Valid(e) {
		t.Errorf("original entity destroyed through clone")
	}

	n := c.Create()
	if n.Index != e.Index {
		t.Errorf("clone did not keep the free list")
	}
}

func TestDumpIsOrdered(t *testing.T) {
	build := func() *Registry {
		r := NewRegistry()
		for i := 0; i != 4; i++ {
			e := r.Create()
			Add(r, e, velocity{DX: i})
			Add(r, e, position{X: i})
		}
		r.Destroy(Entity{Index: 1})
		return r
	}

	collect := func(r *Registry) []any {
		var out []any
		r.Dump(func(store string, e Entity, value any) {
			out = append(out, store, e, value)
		})
		return out
	}

	a := collect(build())
	b := collect(build())

	if len(a) != len(b) {
		t.Fatalf("dump lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("dump differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}
