// Package arena holds the grid of the game: which blocking entity occupies
// each cell, the solid and static-wall flags, and the multi-occupant world
// map used for entities that can share a cell.
//
// Coordinates are never range-checked: callers index the grid with
// positions derived from the arena itself, and an out-of-range access is a
// programming error.
package arena

import (
	"fmt"

	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

// Arena is a fixed-size grid with at most one blocking entity per cell.
type Arena struct {
	width    int
	height   int
	entities []ecs.Entity
	walls    []bool
	solids   []bool
}

// New creates an empty arena.
func New(width, height int) *Arena {
	a := &Arena{
		width:    width,
		height:   height,
		entities: make([]ecs.Entity, width*height),
		walls:    make([]bool, width*height),
		solids:   make([]bool, width*height),
	}
	for i := range a.entities {
		a.entities[i] = ecs.Null
	}
	return a
}

// Width returns the number of columns.
func (a *Arena) Width() int { return a.width }

// Height returns the number of rows.
func (a *Arena) Height() int { return a.height }

// EntityAt returns the blocking entity in the cell, or ecs.Null.
func (a *Arena) EntityAt(x, y int) ecs.Entity {
	return a.entities[y*a.width+x]
}

// PutEntity stores e in the cell. The cell must be empty.
func (a *Arena) PutEntity(x, y int, e ecs.Entity) {
	i := y*a.width + x
	if !a.entities[i].IsNull() {
		panic(fmt.Sprintf("arena: cell (%d, %d) already holds %v", x, y, a.entities[i]))
	}
	a.entities[i] = e
}

// EraseEntity empties the cell and clears its solid flag.
func (a *Arena) EraseEntity(x, y int) {
	i := y*a.width + x
	a.entities[i] = ecs.Null
	a.solids[i] = false
}

// IsSolid reports whether the cell blocks movement.
func (a *Arena) IsSolid(x, y int) bool {
	return a.solids[y*a.width+x]
}

// SetSolid marks the cell as blocking movement.
func (a *Arena) SetSolid(x, y int) {
	a.solids[y*a.width+x] = true
}

// IsStaticWall reports whether the cell is an indestructible wall.
func (a *Arena) IsStaticWall(x, y int) bool {
	return a.walls[y*a.width+x]
}

// SetStaticWall turns the cell into an indestructible, solid wall.
func (a *Arena) SetStaticWall(x, y int) {
	i := y*a.width + x
	a.walls[i] = true
	a.solids[i] = true
}

// IsFree reports whether a player can enter the cell.
func (a *Arena) IsFree(x, y int) bool {
	i := y*a.width + x
	return !a.walls[i] && a.entities[i].IsNull()
}

// StaticWall is a static wall cell with the mask of its static wall
// neighbors.
type StaticWall struct {
	X, Y         int
	Neighborhood Neighborhood
}

// StaticWalls lists the static walls in row-major order.
func (a *Arena) StaticWalls() []StaticWall {
	var out []StaticWall
	for y := 0; y != a.height; y++ {
		for x := 0; x != a.width; x++ {
			if a.IsStaticWall(x, y) {
				out = append(out, StaticWall{
					X:            x,
					Y:            y,
					Neighborhood: ComputeNeighborhood(a.width, a.height, x, y, a.IsStaticWall),
				})
			}
		}
	}
	return out
}

// Clone returns a deep copy of the arena.
func (a *Arena) Clone() *Arena {
	return &Arena{
		width:    a.width,
		height:   a.height,
		entities: append([]ecs.Entity(nil), a.entities...),
		walls:    append([]bool(nil), a.walls...),
		solids:   append([]bool(nil), a.solids...),
	}
}
