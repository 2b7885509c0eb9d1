package ecs

// anyStore is the type-erased view of a Store used by the registry for
// entity destruction and cloning.
type anyStore interface {
	remove(e Entity)
	has(e Entity) bool
	clone() anyStore
	len() int
	dump(each func(e Entity, value any))
}

// Store is a sparse set holding the components of type T.
//
// The dense arrays are packed: removing a component moves the last one into
// the hole. Iteration order is therefore a pure function of the sequence of
// insertions and removals, which keeps replays deterministic.
type Store[T any] struct {
	sparse []int32 // Entity index -> position in dense + 1, 0 when absent
	dense  []Entity
	data   []T
}

// NewStore creates an empty store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		dense: make([]Entity, 0, 16),
		data:  make([]T, 0, 16),
	}
}

// Add attaches value to e, replacing the existing component if any, and
// returns a pointer to the stored component. The pointer is valid until the
// next insertion or removal in this store.
func (s *Store[T]) Add(e Entity, value T) *T {
	if p := s.Get(e); p != nil {
		*p = value
		return p
	}

	if int(e.Index) >= len(s.sparse) {
		grown := make([]int32, e.Index+1, 2*(e.Index+1))
		copy(grown, s.sparse)
		s.sparse = grown[:cap(grown)]
	}

	s.dense = append(s.dense, e)
	s.data = append(s.data, value)
	s.sparse[e.Index] = int32(len(s.dense))

	return &s.data[len(s.data)-1]
}

// Get returns the component of e, or nil if e has none.
func (s *Store[T]) Get(e Entity) *T {
	if int(e.Index) >= len(s.sparse) {
		return nil
	}

	pos := s.sparse[e.Index] - 1
	if pos < 0 || s.dense[pos] != e {
		return nil
	}

	return &s.data[pos]
}

// Has reports whether e has a component in this store.
func (s *Store[T]) Has(e Entity) bool {
	return s.Get(e) != nil
}

// Remove detaches the component of e. Removing a missing component is a no-op.
func (s *Store[T]) Remove(e Entity) {
	if !s.Has(e) {
		return
	}

	pos := s.sparse[e.Index] - 1
	last := int32(len(s.dense) - 1)

	if pos != last {
		moved := s.dense[last]
		s.dense[pos] = moved
		s.data[pos] = s.data[last]
		s.sparse[moved.Index] = pos + 1
	}

	var zero T
	s.data[last] = zero
	s.dense = s.dense[:last]
	s.data = s.data[:last]
	s.sparse[e.Index] = 0
}

// Len returns the number of components in the store.
func (s *Store[T]) Len() int {
	return len(s.dense)
}

// Entities returns a copy of the entities owning a component, in iteration
// order.
func (s *Store[T]) Entities() []Entity {
	out := make([]Entity, len(s.dense))
	copy(out, s.dense)
	return out
}

// Each calls fn for every component, from the most recently packed to the
// first. fn may remove the component of the visited entity and may add
// components; added components are not visited.
func (s *Store[T]) Each(fn func(e Entity, value *T)) {
	for i := len(s.dense) - 1; i >= 0; i-- {
		if i >= len(s.dense) {
			continue
		}
		fn(s.dense[i], &s.data[i])
	}
}

func (s *Store[T]) remove(e Entity) { s.Remove(e) }

func (s *Store[T]) has(e Entity) bool { return s.Has(e) }

func (s *Store[T]) len() int { return len(s.dense) }

func (s *Store[T]) clone() anyStore {
	c := &Store[T]{
		sparse: make([]int32, len(s.sparse)),
		dense:  make([]Entity, len(s.dense), cap(s.dense)),
		data:   make([]T, len(s.data), cap(s.data)),
	}
	copy(c.sparse, s.sparse)
	copy(c.dense, s.dense)
	copy(c.data, s.data)
	return c
}

func (s *Store[T]) dump(each func(e Entity, value any)) {
	for i, e := range s.dense {
		each(e, s.data[i])
	}
}
