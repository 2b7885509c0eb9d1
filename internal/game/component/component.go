// Package component defines the data attached to entities. Components are
// plain values; all behavior lives in the systems.
package component

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

// PositionOnGrid is the cell of a grid-aligned entity.
type PositionOnGrid struct {
	X, Y uint8
}

// Fixed is a fixed-point coordinate with config.PositionFractionBits
// fractional bits.
type Fixed int32

// FixedFromCell returns the coordinate of the center of cell c.
func FixedFromCell(c int) Fixed {
	return Fixed(c)<<config.PositionFractionBits + config.PositionOne/2
}

// Floor returns the integral part of f.
func (f Fixed) Floor() Fixed {
	return f &^ (config.PositionOne - 1)
}

// Cell returns the index of the cell containing f.
func (f Fixed) Cell() int {
	return int(f >> config.PositionFractionBits)
}

// Fraction returns the part of f inside its cell.
func (f Fixed) Fraction() Fixed {
	return f & (config.PositionOne - 1)
}

// FractionalPositionOnGrid is the sub-cell position of a moving entity.
type FractionalPositionOnGrid struct {
	X, Y Fixed
}

// NewFractionalPosition places an entity at the center of a cell.
func NewFractionalPosition(x, y int) FractionalPositionOnGrid {
	return FractionalPositionOnGrid{X: FixedFromCell(x), Y: FixedFromCell(y)}
}

// GridAlignedX returns the column of the cell containing the position.
func (p FractionalPositionOnGrid) GridAlignedX() int { return p.X.Cell() }

// GridAlignedY returns the row of the cell containing the position.
func (p FractionalPositionOnGrid) GridAlignedY() int { return p.Y.Cell() }

// Direction is where a player looks.
type Direction uint8

const (
	DirectionDown Direction = iota
	DirectionUp
	DirectionLeft
	DirectionRight
)

// Player holds the state of a player character.
type Player struct {
	Index         uint8
	BombCapacity  uint8
	BombAvailable uint8
	BombStrength  uint8
	Direction     Direction
}

// Bomb is a dropped bomb. Its fuse is the Timer of the same entity.
type Bomb struct {
	Strength    uint8
	PlayerIndex uint8
}

// Timer counts down to zero. It never goes negative.
type Timer struct {
	Duration time.Duration
}

// FlameDirection is the direction in which a flame propagates.
type FlameDirection uint8

const (
	FlameRight FlameDirection = iota
	FlameDown
	FlameLeft
	FlameUp
)

// FlameSegment locates a flame in the blast.
type FlameSegment uint8

const (
	FlameTip FlameSegment = iota
	FlameArm
	FlameOrigin
)

// Flame is a cell of an explosion. Its lifetime is the Timer of the same
// entity.
type Flame struct {
	Direction FlameDirection
	Segment   FlameSegment
}

// BrickWall is a destructible wall.
type BrickWall struct{}

// Crate is a destructible block that never hides a power-up.
type Crate struct{}

// PowerUpKind is the closed set of power-ups.
type PowerUpKind uint8

const (
	PowerUpBomb PowerUpKind = iota
	PowerUpFlame
	PowerUpInvisibility
	PowerUpShield

	PowerUpKindCount
)

// String returns the name of the kind.
func (k PowerUpKind) String() string {
	switch k {
	case PowerUpBomb:
		return "bomb"
	case PowerUpFlame:
		return "flame"
	case PowerUpInvisibility:
		return "invisibility"
	case PowerUpShield:
		return "shield"
	}
	return "unknown"
}

// PowerUp is a power-up lying in the arena.
type PowerUp struct {
	Kind PowerUpKind
}

// PowerUpSpawner is attached to a brick wall that releases a power-up when
// it burns.
type PowerUpSpawner struct {
	Kind PowerUpKind
}

// Shield protects a player from one burn.
type Shield struct{}

// InvincibilityState makes a player immune to flames until the timer of
// TimerEntity expires.
type InvincibilityState struct {
	TimerEntity ecs.Entity
}

// InvisibilityState hides a player from the others until the timer of
// TimerEntity expires.
type InvisibilityState struct {
	TimerEntity ecs.Entity
}

// FallingBlock is a block dropped by the arena reduction. It seals the cell
// when its Timer expires.
type FallingBlock struct{}

// ArenaReductionState tracks the next cell of the fall order. The Timer of
// the same entity is the delay before the next fall.
type ArenaReductionState struct {
	IndexOfNextFall int
}

// GameTimer marks the entity whose Timer is the remaining game time.
type GameTimer struct{}

// Dead marks an entity to be destroyed at the end of the tick.
type Dead struct{}

// Burning marks an entity reached by a flame.
type Burning struct{}

// Crushed marks a player killed by a falling block.
type Crushed struct{}

// Kicked marks a player removed from the game by the server.
type Kicked struct{}
