package system

import (
	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

// UpdateFlames removes the flames whose time is over and sets fire to
// whatever shares a cell with the remaining ones.
func UpdateFlames(r *ecs.Registry, m *arena.WorldMap) {
	for _, e := range ecs.Collect[component.Flame, component.Timer](r) {
		if ecs.Has[component.Dead](r, e) {
			continue
		}

		position := *ecs.Get[component.PositionOnGrid](r, e)
		x, y := int(position.X), int(position.Y)

		if ecs.Get[component.Timer](r, e).Duration == 0 {
			ecs.Add(r, e, component.Dead{})
			m.EraseEntity(e, x, y)
			continue
		}

		for _, other := range m.EntitiesAt(x, y) {
			if isFlammable(r, other) {
				ecs.Add(r, other, component.Burning{})
			}
		}
	}

	for _, e := range ecs.Collect[component.Player, component.FractionalPositionOnGrid](r) {
		position := ecs.Get[component.FractionalPositionOnGrid](r, e)

		if hasLiveFlame(r, m, position.GridAlignedX(), position.GridAlignedY()) {
			ecs.Add(r, e, component.Burning{})
		}
	}
}

func isFlammable(r *ecs.Registry, e ecs.Entity) bool {
	return ecs.Has[component.BrickWall](r, e) ||
		ecs.Has[component.Crate](r, e) ||
		ecs.Has[component.PowerUp](r, e) ||
		ecs.Has[component.Bomb](r, e)
}

func hasLiveFlame(r *ecs.Registry, m *arena.WorldMap, x, y int) bool {
	for _, e := range m.EntitiesAt(x, y) {
		if ecs.Has[component.Flame](r, e) && !ecs.Has[component.Dead](r, e) {
			return true
		}
	}
	return false
}
