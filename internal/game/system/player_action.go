// Package system contains the per-tick updates of the simulation. Each
// system is a function over the registry and the arena; the contest runs
// them in a fixed order.
package system

import (
	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/game/factory"
)

const (
	stepOffset = component.Fixed(config.PositionOne / config.PlayerStepsPerCell)
	cellHalf   = component.Fixed(config.PositionOne / 2)
)

// ApplyPlayerActions moves the players and drops their bombs according to
// their PlayerAction, then clears the action. A queued action, if any,
// replaces the current one first. Players that are burning, dying or
// kicked do not act.
func ApplyPlayerActions(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap) {
	for _, e := range ecs.Collect[component.Player, component.PlayerAction](r) {
		action := ecs.Get[component.PlayerAction](r, e)

		if q := ecs.Get[component.PlayerActionQueue](r, e); q != nil {
			if queued, ok := q.Pop(); ok {
				*action = queued
			}
		}

		act := *action
		*action = component.PlayerAction{}

		anim := ecs.Get[component.AnimationState](r, e)
		if ecs.Has[component.Kicked](r, e) || (anim != nil && !component.IsPlayerAlive(anim.Model)) {
			continue
		}

		player := ecs.Get[component.Player](r, e)
		position := ecs.Get[component.FractionalPositionOnGrid](r, e)

		if act.DropBomb {
			// The factory may grow the stores; the pointers are reloaded
			// below.
			dropBomb(r, a, m, *player, *position)
			player = ecs.Get[component.Player](r, e)
			position = ecs.Get[component.FractionalPositionOnGrid](r, e)
		}

		if act.Movement != component.MovementIdle {
			movePlayer(player, position, act.Movement, a)
		}

		if anim != nil {
			anim = ecs.Get[component.AnimationState](r, e)
			updateWalkAnimation(anim, player.Direction, act.Movement != component.MovementIdle)
		}
	}
}

func dropBomb(r *ecs.Registry, a *arena.Arena, m *arena.WorldMap, p component.Player, position component.FractionalPositionOnGrid) {
	if p.BombAvailable == 0 {
		return
	}

	x, y := position.GridAlignedX(), position.GridAlignedY()
	if !a.IsFree(x, y) {
		return
	}

	factory.Bomb(r, a, m, x, y, p.BombStrength, p.Index)
}

// movePlayer moves the player by one step. A player blocked by an obstacle
// is pulled toward the center of its cell; a player brushing the corner of
// an obstacle slides along it.
func movePlayer(p *component.Player, position *component.FractionalPositionOnGrid, movement component.Movement, a *arena.Arena) {
	xFloor, yFloor := position.X.Floor(), position.Y.Floor()
	xDecimal, yDecimal := position.X.Fraction(), position.Y.Fraction()
	xInt, yInt := position.X.Cell(), position.Y.Cell()

	width, height := a.Width(), a.Height()

	var (
		checkX, checkY       bool
		obstacleX, obstacleY int
	)

	switch movement {
	case component.MovementLeft:
		p.Direction = component.DirectionLeft

		if xDecimal <= cellHalf+stepOffset && (xInt == 0 || !a.IsFree(xInt-1, yInt)) {
			position.X = xFloor + cellHalf
		} else {
			checkX, obstacleX = true, xInt-1
			position.X -= stepOffset
		}
	case component.MovementRight:
		p.Direction = component.DirectionRight

		if xDecimal+stepOffset >= cellHalf && (xInt+1 == width || !a.IsFree(xInt+1, yInt)) {
			position.X = xFloor + cellHalf
		} else {
			checkX, obstacleX = true, xInt+1
			position.X += stepOffset
		}
	case component.MovementUp:
		p.Direction = component.DirectionUp

		if yDecimal <= cellHalf+stepOffset && (yInt == 0 || !a.IsFree(xInt, yInt-1)) {
			position.Y = yFloor + cellHalf
		} else {
			checkY, obstacleY = true, yInt-1
			position.Y -= stepOffset
		}
	case component.MovementDown:
		p.Direction = component.DirectionDown

		if yDecimal+stepOffset >= cellHalf && (yInt+1 == height || !a.IsFree(xInt, yInt+1)) {
			position.Y = yFloor + cellHalf
		} else {
			checkY, obstacleY = true, yInt+1
			position.Y += stepOffset
		}
	default:
		return
	}

	checkX = checkX && obstacleX >= 0 && obstacleX < width
	checkY = checkY && obstacleY >= 0 && obstacleY < height

	// Steer on the other axis to get around the corners of obstacles.
	switch {
	case checkX && yDecimal > cellHalf && yInt+1 < height:
		if !a.IsFree(obstacleX, yInt+1) {
			position.Y -= min(stepOffset, yDecimal-cellHalf)
		}
	case checkX && yDecimal < cellHalf && yInt > 0:
		if !a.IsFree(obstacleX, yInt-1) {
			position.Y += min(stepOffset, cellHalf-yDecimal)
		}
	case checkY && xDecimal > cellHalf && xInt+1 < width:
		if !a.IsFree(xInt+1, obstacleY) {
			position.X -= min(stepOffset, xDecimal-cellHalf)
		}
	case checkY && xDecimal < cellHalf && xInt > 0:
		if !a.IsFree(xInt-1, obstacleY) {
			position.X += min(stepOffset, cellHalf-xDecimal)
		}
	}
}

func updateWalkAnimation(s *component.AnimationState, d component.Direction, moving bool) {
	want := component.IdleAnimation(d)
	if moving {
		want = component.WalkAnimation(d)
	}

	if s.Model != want {
		s.TransitionTo(want)
	}
}
