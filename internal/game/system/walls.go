package system

import (
	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/game/factory"
)

// UpdateBrickWalls destroys the burning brick walls.
func UpdateBrickWalls(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap) {
	destroyBurning[component.BrickWall](r, a, m)
}

// UpdateCrates destroys the burning crates.
func UpdateCrates(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap) {
	destroyBurning[component.Crate](r, a, m)
}

func destroyBurning[T any](r *ecs.Registry, a *arena.Arena, m *arena.WorldMap) {
	for _, e := range ecs.Collect[T, component.Burning](r) {
		if ecs.Has[component.Dead](r, e) {
			continue
		}

		position := *ecs.Get[component.PositionOnGrid](r, e)
		x, y := int(position.X), int(position.Y)

		ecs.Add(r, e, component.Dead{})
		if a.EntityAt(x, y) == e {
			a.EraseEntity(x, y)
		}
		m.EraseEntity(e, x, y)
	}
}

// UpdatePowerUpSpawners releases the power-ups hidden in burning walls.
func UpdatePowerUpSpawners(r *ecs.Registry, m *arena.WorldMap) {
	for _, e := range ecs.Collect[component.PowerUpSpawner, component.Burning](r) {
		spawner := *ecs.Get[component.PowerUpSpawner](r, e)
		position := *ecs.Get[component.PositionOnGrid](r, e)

		ecs.Remove[component.PowerUpSpawner](r, e)
		factory.PowerUp(r, m, spawner.Kind, int(position.X), int(position.Y))
	}
}
