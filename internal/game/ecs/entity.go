// Package ecs implements the entity/component registry used by the
// simulation. Components live in one sparse set per type; entities are
// handles made of a slot index and a generation counter, so a handle kept
// after its entity was destroyed is detected as stale.
package ecs

import "math"

// Entity is an opaque handle identifying a row of components.
type Entity struct {
	Index      uint32
	Generation uint32
}

// Null is the handle that never designates a live entity.
var Null = Entity{Index: math.MaxUint32, Generation: math.MaxUint32}

// IsNull reports whether e is the null handle.
func (e Entity) IsNull() bool {
	return e == Null
}
