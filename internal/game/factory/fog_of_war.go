package factory

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

// FogOfWar covers the arena with the fog of one player. There is no fog on
// the borders of the arena nor in the 3×3 block around the player's cell.
// The fog rolls in from the center of the arena outward.
//
// Nothing is created if no player has the given index.
func FogOfWar(r *ecs.Registry, playerIndex uint8, width, height int) {
	playerX, playerY, found := -1, -1, false

	ecs.View2(r, func(_ ecs.Entity, p *component.Player, pos *component.FractionalPositionOnGrid) {
		if p.Index == playerIndex {
			playerX, playerY = pos.GridAlignedX(), pos.GridAlignedY()
			found = true
		}
	})

	if !found {
		return
	}

	hasFog := func(x, y int) bool {
		if x <= 0 || y <= 0 || x >= width-1 || y >= height-1 {
			return false
		}
		return abs(x-playerX) > 1 || abs(y-playerY) > 1
	}

	for y := 0; y != height; y++ {
		for x := 0; x != width; x++ {
			if !hasFog(x, y) {
				continue
			}

			e := r.Create()
			ecs.Add(r, e, component.FogOfWar{
				PlayerIndex:  playerIndex,
				Opacity:      0,
				Neighborhood: arena.ComputeNeighborhood(width, height, x, y, hasFog),
				State:        component.FogRollIn,
			})
			ecs.Add(r, e, component.PositionOnGrid{X: uint8(x), Y: uint8(y)})

			delay := time.Duration(abs(x-width/2)+abs(y-height/2)) * config.FogRollInCellDelay
			ecs.Add(r, e, component.Timer{Duration: config.FogRollInDuration + delay})
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
