package system

import (
	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/game/factory"
)

// UpdateBombs explodes the bombs whose fuse is over. A burning bomb has its
// fuse cut and explodes in this pass.
//
// The flames spread in the four directions up to the strength of the bomb.
// A static wall stops a flame; any other blocking entity stops it too and
// starts burning.
func UpdateBombs(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap) {
	for _, e := range ecs.Collect[component.Bomb, component.Burning](r) {
		if t := ecs.Get[component.Timer](r, e); t != nil {
			t.Duration = 0
		}
		ecs.Remove[component.Burning](r, e)
	}

	for _, e := range ecs.Collect[component.Bomb, component.Timer](r) {
		if ecs.Get[component.Timer](r, e).Duration > 0 || ecs.Has[component.Dead](r, e) {
			continue
		}

		bomb := *ecs.Get[component.Bomb](r, e)
		position := *ecs.Get[component.PositionOnGrid](r, e)
		x, y := int(position.X), int(position.Y)

		if a.EntityAt(x, y) == e {
			a.EraseEntity(x, y)
		}
		m.EraseEntity(e, x, y)

		createFlames(r, a, m, x, y, int(bomb.Strength))
		ecs.Add(r, e, component.Dead{})
	}
}

var flameSpread = [...]struct {
	dx, dy    int
	direction component.FlameDirection
}{
	{-1, 0, component.FlameLeft},
	{1, 0, component.FlameRight},
	{0, -1, component.FlameUp},
	{0, 1, component.FlameDown},
}

func createFlames(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap, x, y, strength int) {
	for _, s := range flameSpread {
		for offset := 1; offset <= strength; offset++ {
			fx, fy := x+s.dx*offset, y+s.dy*offset

			if fx < 0 || fy < 0 || fx >= a.Width() || fy >= a.Height() {
				break
			}

			segment := component.FlameArm
			if offset == strength {
				segment = component.FlameTip
			}

			if !burn(r, a, m, fx, fy, s.direction, segment) {
				break
			}
		}
	}

	factory.Flame(r, m, x, y, component.FlameUp, component.FlameOrigin)
}

// burn puts a flame in the cell and reports whether the blast continues
// past it.
func burn(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap, x, y int, direction component.FlameDirection, segment component.FlameSegment) bool {
	if a.IsStaticWall(x, y) {
		return false
	}

	if e := a.EntityAt(x, y); !e.IsNull() {
		ecs.Add(r, e, component.Burning{})
		return false
	}

	factory.Flame(r, m, x, y, direction, segment)
	return true
}
