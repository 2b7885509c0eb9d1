package level

import (
	"testing"

	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/game/factory"
	"github.com/tomz197/bomb-arena/internal/game/random"
)

func TestBasicLevelStructure(t *testing.T) {
	a := arena.New(7, 5)
	GenerateBasicLevelStructure(a)

	want := []string{
		"#######",
		"#.....#",
		"#.#.#.#",
		"#.....#",
		"#######",
	}

	for y, row := range want {
		for x, c := range row {
			if got := a.IsStaticWall(x, y); got != (c == '#') {
				t.Errorf("IsStaticWall(%d, %d) = %v", x, y, got)
			}
		}
	}
}

func TestBrickWallsAvoidPlayers(t *testing.T) {
	const width, height = 13, 11

	a := arena.New(width, height)
	m := arena.NewWorldMap(width, height)
	r := ecs.NewRegistry()

	factory.Player(r, 0, 1, 1)
	factory.Player(r, 1, width-2, height-2)

	GenerateBasicLevelStructure(a)
	InsertRandomBrickWalls(a, m, r, random.New(7), 100, 0)

	for _, p := range [][2]int{{1, 1}, {2, 1}, {1, 2}, {width - 2, height - 2}, {width - 3, height - 2}} {
		if !a.EntityAt(p[0], p[1]).IsNull() {
			t.Errorf("cell %v next to a player holds a wall", p)
		}
	}

	walls := 0
	for y := 0; y != height; y++ {
		for x := 0; x != width; x++ {
			e := a.EntityAt(x, y)
			if e.IsNull() {
				continue
			}
			walls++
			if !ecs.Has[component.BrickWall](r, e) || !a.IsSolid(x, y) {
				t.Errorf("cell (%d, %d) holds %v which is not a solid brick wall", x, y, e)
			}
		}
	}

	spawners := ecs.Storage[component.PowerUpSpawner](r).Len()
	if want := config.BombPowerUpCountInLevel + config.FlamePowerUpCountInLevel; spawners != want {
		t.Errorf("%d power-up spawners among %d walls, want %d", spawners, walls, want)
	}
}

func TestBrickWallsAreDeterministic(t *testing.T) {
	build := func() []ecs.Entity {
		a := arena.New(13, 11)
		m := arena.NewWorldMap(13, 11)
		r := ecs.NewRegistry()
		factory.Player(r, 0, 1, 1)

		GenerateBasicLevelStructure(a)
		InsertRandomBrickWalls(a, m, r, random.New(1234), 60, config.AllFeatures)

		var cells []ecs.Entity
		for y := 0; y != 11; y++ {
			for x := 0; x != 13; x++ {
				cells = append(cells, a.EntityAt(x, y))
			}
		}
		return cells
	}

	first, second := build(), build()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cell %d differs: %v != %v", i, first[i], second[i])
		}
	}
}

func TestPowerUpKindsFollowFeatures(t *testing.T) {
	base := len(powerUpKinds(0))
	all := len(powerUpKinds(config.AllFeatures))

	if want := config.InvisibilityPowerUpCountInLevel + config.ShieldPowerUpCountInLevel; all-base != want {
		t.Errorf("features add %d power-ups, want %d", all-base, want)
	}
}
