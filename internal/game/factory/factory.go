// Package factory creates the entities of the simulation with their
// initial components and registers them in the arena and the world map.
package factory

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

// Player creates the character of the player at the center of cell (x, y).
func Player(r *ecs.Registry, index uint8, x, y int) ecs.Entity {
	e := r.Create()

	ecs.Add(r, e, component.Player{
		Index:         index,
		BombCapacity:  config.InitialBombCapacity,
		BombAvailable: config.InitialBombCapacity,
		BombStrength:  config.InitialBombStrength,
	})
	ecs.Add(r, e, component.NewFractionalPosition(x, y))
	ecs.Add(r, e, component.PlayerAction{})
	ecs.Add(r, e, component.PlayerActionQueue{})
	ecs.Add(r, e, component.AnimationState{Model: component.AnimationPlayerIdleDown})

	return e
}

// Bomb drops a bomb in cell (x, y), which must be free.
func Bomb(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap, x, y int, strength, playerIndex uint8) ecs.Entity {
	e := r.Create()

	ecs.Add(r, e, component.Bomb{Strength: strength, PlayerIndex: playerIndex})
	ecs.Add(r, e, component.PositionOnGrid{X: uint8(x), Y: uint8(y)})
	ecs.Add(r, e, component.Timer{Duration: config.BombDuration})

	a.PutEntity(x, y, e)
	m.PutEntity(e, x, y)

	return e
}

// Flame creates a flame segment in cell (x, y).
func Flame(r *ecs.Registry, m *arena.WorldMap, x, y int, direction component.FlameDirection, segment component.FlameSegment) ecs.Entity {
	e := r.Create()

	ecs.Add(r, e, component.Flame{Direction: direction, Segment: segment})
	ecs.Add(r, e, component.PositionOnGrid{X: uint8(x), Y: uint8(y)})
	ecs.Add(r, e, component.Timer{Duration: config.FlameDuration})
	ecs.Add(r, e, component.AnimationState{Model: component.AnimationFlameWarmUp})

	m.PutEntity(e, x, y)

	return e
}

// BrickWall creates a destructible wall in cell (x, y), which must be free.
func BrickWall(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap, x, y int) ecs.Entity {
	e := r.Create()

	ecs.Add(r, e, component.BrickWall{})
	ecs.Add(r, e, component.PositionOnGrid{X: uint8(x), Y: uint8(y)})

	a.PutEntity(x, y, e)
	a.SetSolid(x, y)
	m.PutEntity(e, x, y)

	return e
}

// Crate creates a destructible block in cell (x, y), which must be free.
func Crate(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap, x, y int) ecs.Entity {
	e := r.Create()

	ecs.Add(r, e, component.Crate{})
	ecs.Add(r, e, component.PositionOnGrid{X: uint8(x), Y: uint8(y)})

	a.PutEntity(x, y, e)
	a.SetSolid(x, y)
	m.PutEntity(e, x, y)

	return e
}

// PowerUp drops a power-up of the given kind in cell (x, y).
func PowerUp(r *ecs.Registry, m *arena.WorldMap, kind component.PowerUpKind, x, y int) ecs.Entity {
	e := r.Create()

	ecs.Add(r, e, component.PowerUp{Kind: kind})
	ecs.Add(r, e, component.PositionOnGrid{X: uint8(x), Y: uint8(y)})

	m.PutEntity(e, x, y)

	return e
}

// FallingBlock creates a block that will seal cell (x, y) after duration.
func FallingBlock(r *ecs.Registry, m *arena.WorldMap, x, y int, duration time.Duration) ecs.Entity {
	e := r.Create()

	ecs.Add(r, e, component.FallingBlock{})
	ecs.Add(r, e, component.PositionOnGrid{X: uint8(x), Y: uint8(y)})
	ecs.Add(r, e, component.Timer{Duration: duration})

	m.PutEntity(e, x, y)

	return e
}

// Timer creates an entity holding only a timer. Timed states refer to such
// entities.
func Timer(r *ecs.Registry, duration time.Duration) ecs.Entity {
	e := r.Create()
	ecs.Add(r, e, component.Timer{Duration: duration})
	return e
}

// GameTimer creates the entity counting the remaining game time.
func GameTimer(r *ecs.Registry, duration time.Duration) ecs.Entity {
	e := Timer(r, duration)
	ecs.Add(r, e, component.GameTimer{})
	return e
}

// ArenaReduction creates the entity driving the falling blocks; the first
// block falls after delay.
func ArenaReduction(r *ecs.Registry, delay time.Duration) ecs.Entity {
	e := Timer(r, delay)
	ecs.Add(r, e, component.ArenaReductionState{})
	return e
}
