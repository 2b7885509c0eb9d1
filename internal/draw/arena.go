package draw

import (
	"strconv"

	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
)

// Spectator is the viewer index of someone who is not playing: every
// player is shown and there is no fog.
const Spectator = -1

var (
	staticWallCell   = Cell{Glyph: "██", Color: ColorGray}
	brickWallCell    = Cell{Glyph: "▒▒", Color: ColorYellow}
	crateCell        = Cell{Glyph: "[]", Color: ColorYellow}
	bombCell         = Cell{Glyph: "()", Color: ColorBrightRed}
	flameCell        = Cell{Glyph: "##", Color: ColorBrightYellow}
	flameOriginCell  = Cell{Glyph: "**", Color: ColorBrightYellow}
	fallingBlockCell = Cell{Glyph: "▼▼", Color: ColorGray}
)

var powerUpGlyphs = [component.PowerUpKindCount]string{
	component.PowerUpBomb:         "+b",
	component.PowerUpFlame:        "+f",
	component.PowerUpInvisibility: "+i",
	component.PowerUpShield:       "+s",
}

// PaintContest draws the arena of c on the canvas, as seen by the player of
// index viewer. The canvas is resized to the arena.
func PaintContest(canvas *Canvas, c *contest.Contest, viewer int) {
	a := c.Arena()
	r := c.Registry()

	canvas.Resize(a.Width(), a.Height())
	canvas.Clear()

	for y := 0; y < a.Height(); y++ {
		for x := 0; x < a.Width(); x++ {
			if a.IsStaticWall(x, y) {
				canvas.Set(x, y, staticWallCell)
			}
		}
	}

	ecs.View2(r, func(_ ecs.Entity, p *component.PositionOnGrid, _ *component.BrickWall) {
		canvas.Set(int(p.X), int(p.Y), brickWallCell)
	})
	ecs.View2(r, func(_ ecs.Entity, p *component.PositionOnGrid, _ *component.Crate) {
		canvas.Set(int(p.X), int(p.Y), crateCell)
	})
	ecs.View2(r, func(_ ecs.Entity, p *component.PositionOnGrid, u *component.PowerUp) {
		canvas.Set(int(p.X), int(p.Y), Cell{Glyph: powerUpGlyphs[u.Kind], Color: ColorGreen})
	})
	ecs.View2(r, func(_ ecs.Entity, p *component.PositionOnGrid, _ *component.Bomb) {
		canvas.Set(int(p.X), int(p.Y), bombCell)
	})
	ecs.View2(r, func(_ ecs.Entity, p *component.PositionOnGrid, f *component.Flame) {
		if f.Segment == component.FlameOrigin {
			canvas.Set(int(p.X), int(p.Y), flameOriginCell)
		} else {
			canvas.Set(int(p.X), int(p.Y), flameCell)
		}
	})
	ecs.View2(r, func(_ ecs.Entity, p *component.PositionOnGrid, _ *component.FallingBlock) {
		canvas.Set(int(p.X), int(p.Y), fallingBlockCell)
	})

	ecs.View2(r, func(e ecs.Entity, p *component.FractionalPositionOnGrid, player *component.Player) {
		if viewer != Spectator && int(player.Index) != viewer && ecs.Has[component.InvisibilityState](r, e) {
			return
		}
		canvas.Set(p.GridAlignedX(), p.GridAlignedY(), PlayerCell(player.Index, ecs.Has[component.Shield](r, e)))
	})

	if viewer == Spectator {
		return
	}

	ecs.View2(r, func(_ ecs.Entity, p *component.PositionOnGrid, f *component.FogOfWar) {
		if int(f.PlayerIndex) == viewer && f.Opacity != 0 {
			canvas.Set(int(p.X), int(p.Y), Cell{Glyph: ShadeGlyph(f.Opacity), Color: ColorGray})
		}
	})
}

// PlayerCell returns the cell showing a player. A shielded player is shown
// in reverse video.
func PlayerCell(index uint8, shielded bool) Cell {
	color := PlayerColor(index)
	if shielded {
		color += AttributeReverse
	}
	return Cell{Glyph: "P" + strconv.Itoa(int(index)+1), Color: color}
}
