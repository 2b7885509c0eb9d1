package system

import (
	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/game/factory"
)

// ArenaReduction drops blocks on the arena, one cell at a time, in a spiral
// going from the borders to the center.
type ArenaReduction struct {
	fallOrder []component.PositionOnGrid
}

// NewArenaReduction computes the fall order from the static walls of a.
// The order never changes afterwards and can be shared between clones of a
// contest.
func NewArenaReduction(a *arena.Arena) *ArenaReduction {
	width, height := a.Width(), a.Height()
	available := make([]bool, width*height)
	count := 0

	for y := 0; y != height; y++ {
		for x := 0; x != width; x++ {
			if !a.IsStaticWall(x, y) {
				available[y*width+x] = true
				count++
			}
		}
	}

	ar := &ArenaReduction{fallOrder: make([]component.PositionOnGrid, 0, count)}

	take := func(x, y int) bool {
		if !available[y*width+x] {
			return false
		}
		available[y*width+x] = false
		ar.fallOrder = append(ar.fallOrder, component.PositionOnGrid{X: uint8(x), Y: uint8(y)})
		return true
	}

	// Each scan takes the first available cell from first to last.
	horizontal := func(y, first, last int) int {
		inc := 1
		if last < first {
			inc = -1
		}
		for x := first; x != last+inc; x += inc {
			if take(x, y) {
				return 1
			}
		}
		return 0
	}

	vertical := func(x, first, last int) int {
		inc := 1
		if last < first {
			inc = -1
		}
		for y := first; y != last+inc; y += inc {
			if take(x, y) {
				return 1
			}
		}
		return 0
	}

	left, right, top, bottom := 0, width-1, 0, height-1

	for top <= bottom && left <= right {
		added := horizontal(top, left, right)
		added += vertical(right, top, bottom)
		added += horizontal(bottom, right, left)
		added += vertical(left, bottom, top)

		if added == 0 {
			top++
			bottom--
			left++
			right--
		}
	}

	return ar
}

// FallOrder returns the cells in the order in which they are sealed.
func (ar *ArenaReduction) FallOrder() []component.PositionOnGrid {
	return ar.fallOrder
}

// Update drops the next block when the delay of the reduction is over.
func (ar *ArenaReduction) Update(r *ecs.Registry, m *arena.WorldMap) {
	for _, e := range ecs.Collect[component.ArenaReductionState, component.Timer](r) {
		t := ecs.Get[component.Timer](r, e)
		state := ecs.Get[component.ArenaReductionState](r, e)

		if t.Duration > 0 || state.IndexOfNextFall >= len(ar.fallOrder) {
			continue
		}

		t.Duration = config.FallingBlockDuration
		next := ar.fallOrder[state.IndexOfNextFall]
		state.IndexOfNextFall++

		factory.FallingBlock(r, m, int(next.X), int(next.Y), config.FallingBlockDuration)
	}
}

// UpdateFallingBlocks seals the cells whose block has landed. The cell
// becomes a static wall: the players in it die, the bombs explode and the
// other occupants are destroyed.
func UpdateFallingBlocks(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap) {
	for _, e := range ecs.Collect[component.FallingBlock, component.Timer](r) {
		if ecs.Get[component.Timer](r, e).Duration > 0 || ecs.Has[component.Dead](r, e) {
			continue
		}

		position := *ecs.Get[component.PositionOnGrid](r, e)
		sealCell(r, a, m, int(position.X), int(position.Y))
		ecs.Add(r, e, component.Dead{})
	}
}

func sealCell(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap, x, y int) {
	for _, p := range ecs.Collect[component.Player, component.FractionalPositionOnGrid](r) {
		position := ecs.Get[component.FractionalPositionOnGrid](r, p)
		if position.GridAlignedX() == x && position.GridAlignedY() == y {
			ecs.Add(r, p, component.Crushed{})
		}
	}

	if occupant := a.EntityAt(x, y); !occupant.IsNull() {
		a.EraseEntity(x, y)

		if t := ecs.Get[component.Timer](r, occupant); t != nil && ecs.Has[component.Bomb](r, occupant) {
			t.Duration = 0
		} else {
			ecs.Add(r, occupant, component.Dead{})
		}
	}

	for _, e := range m.EntitiesAt(x, y) {
		if ecs.Has[component.PowerUp](r, e) {
			ecs.Add(r, e, component.Dead{})
		}
	}

	a.SetStaticWall(x, y)
}
