package ecs

import (
	"fmt"
	"reflect"
	"sort"
)

// Registry owns the entities and one Store per component type.
// It is not safe for concurrent use.
type Registry struct {
	generations []uint32 // Current generation of each slot
	alive       []bool
	free        []uint32 // Released slots, reused last-in first-out
	count       int
	stores      map[reflect.Type]anyStore
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[reflect.Type]anyStore),
	}
}

// Create allocates a new entity without components.
func (r *Registry) Create() Entity {
	r.count++

	if n := len(r.free); n > 0 {
		index := r.free[n-1]
		r.free = r.free[:n-1]
		r.alive[index] = true
		return Entity{Index: index, Generation: r.generations[index]}
	}

	index := uint32(len(r.generations))
	r.generations = append(r.generations, 0)
	r.alive = append(r.alive, true)
	return Entity{Index: index, Generation: 0}
}

// Valid reports whether e designates a live entity.
func (r *Registry) Valid(e Entity) bool {
	return int(e.Index) < len(r.generations) &&
		r.alive[e.Index] &&
		r.generations[e.Index] == e.Generation
}

// Destroy removes every component of e and releases its slot. Destroying a
// stale handle is a no-op.
func (r *Registry) Destroy(e Entity) {
	if !r.Valid(e) {
		return
	}

	for _, s := range r.stores {
		s.remove(e)
	}

	r.alive[e.Index] = false
	r.generations[e.Index]++
	r.free = append(r.free, e.Index)
	r.count--
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	return r.count
}

// Clone returns a deep copy of the registry. Handles valid in r are valid in
// the copy and designate the same components.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		generations: append([]uint32(nil), r.generations...),
		alive:       append([]bool(nil), r.alive...),
		free:        append([]uint32(nil), r.free...),
		count:       r.count,
		stores:      make(map[reflect.Type]anyStore, len(r.stores)),
	}

	for t, s := range r.stores {
		c.stores[t] = s.clone()
	}

	return c
}

// Dump calls fn for every component of every store. Stores are visited in
// the lexical order of their type names and components in packing order,
// so two registries built by the same operations produce the same dump.
func (r *Registry) Dump(fn func(store string, e Entity, value any)) {
	names := make([]string, 0, len(r.stores))
	byName := make(map[string]anyStore, len(r.stores))

	for t, s := range r.stores {
		name := t.String()
		names = append(names, name)
		byName[name] = s
	}
	sort.Strings(names)

	for _, name := range names {
		byName[name].dump(func(e Entity, value any) {
			fn(name, e, value)
		})
	}
}

// Storage returns the store of components of type T, creating it on first
// use.
func Storage[T any](r *Registry) *Store[T] {
	t := reflect.TypeFor[T]()

	if s, ok := r.stores[t]; ok {
		return s.(*Store[T])
	}

	s := NewStore[T]()
	r.stores[t] = s
	return s
}

// Add attaches a component of type T to e and returns a pointer to it.
func Add[T any](r *Registry, e Entity, value T) *T {
	if !r.Valid(e) {
		panic(fmt.Sprintf("ecs: adding %s to invalid entity %v", reflect.TypeFor[T](), e))
	}
	return Storage[T](r).Add(e, value)
}

// Get returns the component of type T of e, or nil.
func Get[T any](r *Registry, e Entity) *T {
	return Storage[T](r).Get(e)
}

// Has reports whether e has a component of type T.
func Has[T any](r *Registry, e Entity) bool {
	return Storage[T](r).Has(e)
}

// Remove detaches the component of type T from e.
func Remove[T any](r *Registry, e Entity) {
	Storage[T](r).Remove(e)
}

// Clear removes every component of type T.
func Clear[T any](r *Registry) {
	s := Storage[T](r)
	for _, e := range s.Entities() {
		s.Remove(e)
	}
}
