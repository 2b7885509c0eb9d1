// Package level builds the initial layout of an arena.
package level

import (
	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/game/factory"
	"github.com/tomz197/bomb-arena/internal/game/random"
)

// GenerateBasicLevelStructure places the static walls: the borders of the
// arena and one pillar every other cell inside.
func GenerateBasicLevelStructure(a *arena.Arena) {
	width, height := a.Width(), a.Height()

	if width < 3 || height < 3 {
		panic("level: arena is too small")
	}

	for x := 0; x != width; x++ {
		a.SetStaticWall(x, 0)
		a.SetStaticWall(x, height-1)
	}

	for y := 1; y < height-1; y++ {
		a.SetStaticWall(0, y)
		a.SetStaticWall(width-1, y)
	}

	for y := 2; y < height-1; y += 2 {
		for x := 2; x < width-1; x += 2 {
			a.SetStaticWall(x, y)
		}
	}
}

// InsertRandomBrickWalls fills the free cells with brick walls, each with a
// probability of probability percent, then hides the power-ups under some
// of them.
//
// The cells are visited in row-major order and the cells around the players
// are never filled. The draws from rng are part of the replay contract: any
// change here changes every recorded game.
func InsertRandomBrickWalls(
	a *arena.Arena,
	m *arena.WorldMap,
	r *ecs.Registry,
	rng *random.Generator,
	probability uint8,
	features config.Feature,
) {
	width, height := a.Width(), a.Height()
	forbidden := make([]bool, width*height)

	ecs.View2(r, func(_ ecs.Entity, _ *component.Player, p *component.FractionalPositionOnGrid) {
		px, py := p.GridAlignedX(), p.GridAlignedY()

		for y := py - 1; y <= py+1; y++ {
			for x := px - 1; x <= px+1; x++ {
				if x >= 0 && y >= 0 && x < width && y < height {
					forbidden[y*width+x] = true
				}
			}
		}
	})

	var walls []ecs.Entity

	for y := 0; y != height; y++ {
		for x := 0; x != width; x++ {
			if a.IsStaticWall(x, y) || forbidden[y*width+x] || !a.EntityAt(x, y).IsNull() {
				continue
			}

			if rng.Intn(100) < int(probability) {
				walls = append(walls, factory.BrickWall(r, a, m, x, y))
			}
		}
	}

	kinds := powerUpKinds(features)
	count := min(len(kinds), len(walls))

	// Partial Fisher-Yates: the first count walls receive a spawner.
	for i := 0; i != count; i++ {
		j := i + rng.Intn(len(walls)-i)
		walls[i], walls[j] = walls[j], walls[i]
	}

	for i := 0; i != count; i++ {
		ecs.Add(r, walls[i], component.PowerUpSpawner{Kind: kinds[i]})
	}
}

// powerUpKinds lists the power-ups of a level, in assignment order.
func powerUpKinds(features config.Feature) []component.PowerUpKind {
	var kinds []component.PowerUpKind

	add := func(kind component.PowerUpKind, n int) {
		for i := 0; i != n; i++ {
			kinds = append(kinds, kind)
		}
	}

	add(component.PowerUpBomb, config.BombPowerUpCountInLevel)
	add(component.PowerUpFlame, config.FlamePowerUpCountInLevel)

	if features.Has(config.FeatureInvisibility) {
		add(component.PowerUpInvisibility, config.InvisibilityPowerUpCountInLevel)
	}
	if features.Has(config.FeatureShield) {
		add(component.PowerUpShield, config.ShieldPowerUpCountInLevel)
	}

	return kinds
}
