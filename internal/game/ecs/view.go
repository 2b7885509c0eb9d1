package ecs

// Each calls fn for every entity having a component of type A.
func Each[A any](r *Registry, fn func(e Entity, a *A)) {
	Storage[A](r).Each(fn)
}

// View2 calls fn for every entity having components of types A and B. The
// smallest of the two stores drives the iteration.
//
// fn may remove components of the visited entity or destroy it; changes to
// other entities must be deferred until the view returns.
func View2[A, B any](r *Registry, fn func(e Entity, a *A, b *B)) {
	sa := Storage[A](r)
	sb := Storage[B](r)

	if sa.Len() <= sb.Len() {
		sa.Each(func(e Entity, a *A) {
			if b := sb.Get(e); b != nil {
				fn(e, a, b)
			}
		})
		return
	}

	sb.Each(func(e Entity, b *B) {
		if a := sa.Get(e); a != nil {
			fn(e, a, b)
		}
	})
}

// View3 calls fn for every entity having components of types A, B and C.
// The smallest store drives the iteration.
func View3[A, B, C any](r *Registry, fn func(e Entity, a *A, b *B, c *C)) {
	sa := Storage[A](r)
	sb := Storage[B](r)
	sc := Storage[C](r)

	visit := func(e Entity) {
		a := sa.Get(e)
		if a == nil {
			return
		}
		b := sb.Get(e)
		if b == nil {
			return
		}
		c := sc.Get(e)
		if c == nil {
			return
		}
		fn(e, a, b, c)
	}

	switch {
	case sa.Len() <= sb.Len() && sa.Len() <= sc.Len():
		sa.Each(func(e Entity, _ *A) { visit(e) })
	case sb.Len() <= sc.Len():
		sb.Each(func(e Entity, _ *B) { visit(e) })
	default:
		sc.Each(func(e Entity, _ *C) { visit(e) })
	}
}

// Collect returns the entities having components of both types A and B, in
// view order. Use it when the loop body mutates other entities.
func Collect[A, B any](r *Registry) []Entity {
	var out []Entity
	View2(r, func(e Entity, _ *A, _ *B) {
		out = append(out, e)
	})
	return out
}
