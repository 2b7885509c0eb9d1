package system

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/game/arena"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

type fogCell struct {
	fog   *component.FogOfWar
	timer *component.Timer
}

// FogOfWarUpdater uncovers the fog around the players and drives the
// opacity of each fog cell from its timer.
//
// The fog cells are indexed per player at the start of every update; the
// updater keeps no state between two updates.
type FogOfWarUpdater struct {
	width       int
	height      int
	playerCount int
	tables      [config.MaxPlayerCount][]fogCell
	blown       []bool
}

// NewFogOfWarUpdater creates the updater for a width×height arena.
func NewFogOfWarUpdater(width, height, playerCount int) *FogOfWarUpdater {
	u := &FogOfWarUpdater{
		width:       width,
		height:      height,
		playerCount: playerCount,
		blown:       make([]bool, width*height),
	}
	for i := range u.tables {
		u.tables[i] = make([]fogCell, width*height)
	}
	return u
}

// FogOpacity returns the opacity of the fog of a player in every cell of a
// width×height arena, in row-major order. Clear cells have a zero opacity.
func FogOpacity(r *ecs.Registry, playerIndex uint8, width, height int) []uint8 {
	out := make([]uint8, width*height)

	ecs.View2(r, func(_ ecs.Entity, f *component.FogOfWar, p *component.PositionOnGrid) {
		if f.PlayerIndex == playerIndex && int(p.X) < width && int(p.Y) < height {
			out[int(p.Y)*width+int(p.X)] = f.Opacity
		}
	})

	return out
}

// Update runs one step of the fog of every player.
func (u *FogOfWarUpdater) Update(r *ecs.Registry) {
	u.buildTables(r)

	for _, e := range ecs.Collect[component.Player, component.FractionalPositionOnGrid](r) {
		p := ecs.Get[component.Player](r, e)
		if int(p.Index) >= len(u.tables) {
			continue
		}

		position := ecs.Get[component.FractionalPositionOnGrid](r, e)
		u.updatePlayer(r, int(p.Index), position.GridAlignedX(), position.GridAlignedY())
	}
}

func (u *FogOfWarUpdater) buildTables(r *ecs.Registry) {
	for i := range u.tables {
		clear(u.tables[i])
	}

	ecs.View3(r, func(_ ecs.Entity, f *component.FogOfWar, t *component.Timer, p *component.PositionOnGrid) {
		if int(f.PlayerIndex) < len(u.tables) {
			u.tables[f.PlayerIndex][int(p.Y)*u.width+int(p.X)] = fogCell{fog: f, timer: t}
		}
	})
}

func (u *FogOfWarUpdater) cell(table []fogCell, x, y int) *fogCell {
	if x < 0 || y < 0 || x >= u.width || y >= u.height {
		return nil
	}

	c := &table[y*u.width+x]
	if c.fog == nil {
		return nil
	}
	return c
}

func (u *FogOfWarUpdater) updatePlayer(r *ecs.Registry, playerIndex, playerX, playerY int) {
	clear(u.blown)
	table := u.tables[playerIndex]

	for y := playerY - 1; y <= playerY+1; y++ {
		for x := playerX - 1; x <= playerX+1; x++ {
			u.hide(table, x, y)
		}
	}

	if u.playerCount <= config.FogFlamesMaxPlayers {
		ecs.View2(r, func(_ ecs.Entity, _ *component.Flame, p *component.PositionOnGrid) {
			x, y := int(p.X), int(p.Y)
			u.blown[y*u.width+x] = true
			u.blow(table, x, y)
		})
	}

	u.updateOpacity(table)
}

func (u *FogOfWarUpdater) hide(table []fogCell, x, y int) {
	c := u.cell(table, x, y)
	if c == nil || c.fog.State == component.FogHiding {
		return
	}

	c.fog.State = component.FogHiding
	c.timer.Duration = scale(config.FogHideDuration, c.fog.Opacity)
	u.uncover(table, x, y)
}

func (u *FogOfWarUpdater) blow(table []fogCell, x, y int) {
	c := u.cell(table, x, y)
	if c == nil || c.fog.State == component.FogHiding || c.fog.State == component.FogBlown {
		return
	}

	c.fog.State = component.FogBlown
	c.timer.Duration = scale(config.FogBlowDuration, c.fog.Opacity)
	u.uncover(table, x, y)
}

// uncover tells the neighbors of (x, y) that it is no longer foggy.
func (u *FogOfWarUpdater) uncover(table []fogCell, x, y int) {
	arena.EachNeighbor(x, y, func(nx, ny int, from arena.Neighborhood) {
		if n := u.cell(table, nx, ny); n != nil {
			n.fog.Neighborhood &^= from
		}
	})
}

func (u *FogOfWarUpdater) cover(table []fogCell, x, y int) {
	arena.EachNeighbor(x, y, func(nx, ny int, from arena.Neighborhood) {
		if n := u.cell(table, nx, ny); n != nil {
			n.fog.Neighborhood |= from
		}
	})
}

func (u *FogOfWarUpdater) updateOpacity(table []fogCell) {
	for y := 0; y != u.height; y++ {
		for x := 0; x != u.width; x++ {
			c := u.cell(table, x, y)
			if c == nil {
				continue
			}

			f, t := c.fog, c.timer

			switch f.State {
			case component.FogStable:
			case component.FogBlown:
				f.Opacity = opacity(t.Duration, config.FogBlowDuration)

				// A cell blown during this update stays blown.
				if !u.blown[y*u.width+x] && t.Duration == 0 {
					f.State = component.FogRestore
					t.Duration = config.FogRestoreDuration
				}
			case component.FogRestore, component.FogRollIn:
				total := config.FogRestoreDuration
				if f.State == component.FogRollIn {
					total = config.FogRollInDuration
				}

				if t.Duration == 0 {
					f.State = component.FogStable
					u.cover(table, x, y)
				}

				f.Opacity = opacity(max(0, total-t.Duration), total)
			case component.FogHiding:
				f.Opacity = opacity(t.Duration, config.FogHideDuration)
			}
		}
	}
}

// scale returns the part of d matching the opacity.
func scale(d time.Duration, opacity uint8) time.Duration {
	return d * time.Duration(opacity) / config.FogFullOpacity
}

// opacity returns the opacity matching the part d of total.
func opacity(d, total time.Duration) uint8 {
	if d >= total {
		return config.FogFullOpacity
	}
	return uint8(d * config.FogFullOpacity / total)
}
