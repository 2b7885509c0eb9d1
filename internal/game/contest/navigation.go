package contest

import "github.com/tomz197/bomb-arena/internal/game/arena"

// IsValidNavigation reports whether a player could walk from one cell to
// the other, ignoring everything but the static walls.
func IsValidNavigation(a *arena.Arena, fromX, fromY, toX, toY int) bool {
	width, height := a.Width(), a.Height()

	queued := make([]bool, width*height)
	queued[fromY*width+fromX] = true

	type cell struct{ x, y int }
	pending := []cell{{fromX, fromY}}

	// The stack is kept sorted so that the cell closest to the target is
	// explored first.
	distance := func(c cell) int {
		dx, dy := c.x-toX, c.y-toY
		return dx*dx + dy*dy
	}

	steps := [4]cell{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}

	for len(pending) != 0 {
		p := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if p.x == toX && p.y == toY {
			return true
		}

		for _, s := range steps {
			n := cell{p.x + s.x, p.y + s.y}

			if n.x < 0 || n.y < 0 || n.x >= width || n.y >= height ||
				queued[n.y*width+n.x] || a.IsStaticWall(n.x, n.y) {
				continue
			}

			queued[n.y*width+n.x] = true
			pending = append(pending, n)

			d := distance(n)
			for k := len(pending) - 1; k > 0 && distance(pending[k-1]) < d; k-- {
				pending[k-1], pending[k] = pending[k], pending[k-1]
			}
		}
	}

	return false
}

// PlayersCanMeet reports whether every spawn point of the contest can reach
// the others.
func (c *Contest) PlayersCanMeet() bool {
	width, height := int(c.fingerprint.ArenaWidth), int(c.fingerprint.ArenaHeight)
	fromX, fromY := spawnPoint(0, width, height)

	for i := 1; i < int(c.fingerprint.PlayerCount); i++ {
		x, y := spawnPoint(i, width, height)
		if !IsValidNavigation(c.arena, fromX, fromY, x, y) {
			return false
		}
	}

	return true
}
