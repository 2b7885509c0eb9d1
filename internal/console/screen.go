package console

import (
	"fmt"
	"time"

	"github.com/tomz197/bomb-arena/internal/draw"
	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/net/message"
)

var titleArt = []string{
	` ___  ___  __  __ ___     _   ___ ___ _  _   _   `,
	`| _ )/ _ \|  \/  | _ )   /_\ | _ \ __| \| | /_\  `,
	`| _ \ (_) | |\/| | _ \  / _ \|   / _|| .' |/ _ \ `,
	`|___/\___/|_|  |_|___/ /_/ \_\_|_\___|_|\_/_/ \_\`,
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	c.updateScreen()

	// A full clear on each screen change, so that nothing of the previous
	// screen stays.
	if c.state.screen != c.state.prevScreen {
		c.chunkWriter.Clear()
		c.canvas.ForceRedraw()
		c.borderShown = false
		c.state.prevScreen = c.state.screen
	}

	centerX := c.termWidth / 2
	centerY := c.termHeight / 2

	switch c.state.screen {
	case ScreenConnecting:
		c.drawConnecting(centerX, centerY)
	case ScreenLobby:
		c.drawLobby(centerX, centerY)
	case ScreenNaming:
		c.drawNaming(centerX, centerY)
	case ScreenWaiting:
		c.drawWaiting(centerX, centerY)
	case ScreenPlaying:
		c.drawPlaying(centerX)
	case ScreenResult:
		c.drawResult(centerX, centerY)
	case ScreenRefused:
		c.drawRefused(centerX, centerY)
	}

	return c.chunkWriter.Flush()
}

// updateScreen follows the size of the terminal and clears it on changes.
func (c *Client) updateScreen() {
	width, height, err := c.termSizeFunc()
	if err != nil || width <= 0 || height <= 0 {
		return
	}

	if width != c.termWidth || height != c.termHeight {
		c.termWidth, c.termHeight = width, height
		c.chunkWriter.Clear()
		c.canvas.ForceRedraw()
		c.state.prevScreen = -1
	}
}

// line writes a centered line, erasing what was there before.
func (c *Client) line(centerX, row int, s string) {
	c.chunkWriter.ClearLine(row)
	c.chunkWriter.WriteCentered(centerX, row, s)
}

func (c *Client) drawTitle(centerX, top int) int {
	for i, l := range titleArt {
		c.chunkWriter.WriteCentered(centerX, top+i, l)
	}
	return top + len(titleArt) + 1
}

func blink() bool {
	return time.Now().UnixMilli()/600%2 == 0
}

func (c *Client) drawConnecting(centerX, centerY int) {
	row := c.drawTitle(centerX, centerY-5)
	c.line(centerX, row+1, "Connecting to the server...")
	c.line(centerX, row+3, "Q  . . . . . .  Quit")
}

func (c *Client) drawLobby(centerX, centerY int) {
	row := c.drawTitle(centerX, centerY-9)

	if c.state.hasServer {
		s := c.state.server
		c.line(centerX, row, fmt.Sprintf("~ %s ~", s.Name))
		c.line(centerX, row+1, fmt.Sprintf("%d online, %d games running, %d played today",
			s.Stats.SessionsNow, s.Stats.GamesNow, s.Stats.GamesLastDay))
	}

	controls := []string{
		"R  . . . . . . . .  Random game",
		"N  . . . . . . . .   Named game",
		"Q  . . . . . . . . . . . . Quit",
		"",
		"Arrows / WASD  . . . . . . Move",
		"SPACE  . . . . . . . . . . Bomb",
	}
	for i, l := range controls {
		c.line(centerX, row+3+i, l)
	}
}

func (c *Client) drawNaming(centerX, centerY int) {
	row := c.drawTitle(centerX, centerY-6)

	c.line(centerX, row+1, "Name of the game to create or join:")

	cursor := " "
	if blink() {
		cursor = "_"
	}
	c.line(centerX, row+3, fmt.Sprintf("[ %-*s ]", message.GameNameSize, c.state.gameName+cursor))
	c.line(centerX, row+5, "ENTER to confirm, ESC to go back")
}

func (c *Client) drawWaiting(centerX, centerY int) {
	row := c.drawTitle(centerX, centerY-6)

	if !c.state.hasProposal {
		c.line(centerX, row+1, "Looking for a game...")
	} else {
		c.line(centerX, row+1, fmt.Sprintf("Encounter #%d: %d player(s)", c.state.proposal.EncounterID, c.state.proposal.PlayerCount))
	}

	switch {
	case c.state.accepted:
		c.line(centerX, row+3, "Waiting for the other players to accept...")
	case c.state.hasProposal && blink():
		c.line(centerX, row+3, ">>  Press ENTER when everybody is there  <<")
	default:
		c.chunkWriter.ClearLine(row + 3)
	}

	c.line(centerX, row+5, "ESC to cancel")
}

func (c *Client) drawPlaying(centerX int) {
	s := c.state
	if s.runner == nil {
		return
	}

	ct := s.runner.Contest()
	draw.PaintContest(c.canvas, ct, int(s.launch.PlayerIndex))

	originCol := max(2, centerX-c.canvas.Width()/2)
	originRow := max(4, (c.termHeight-c.canvas.Rows())/2+1)
	if c.canvasMoved(originCol, originRow) {
		c.chunkWriter.Clear()
		c.borderShown = false
	}
	c.canvas.SetOrigin(originCol, originRow)

	if !c.borderShown {
		c.canvas.RenderBorder(c.chunkWriter)
		c.borderShown = true
	}
	c.canvas.Render(c.chunkWriter)

	if !s.started {
		c.line(centerX, 1, "Waiting for everybody to be ready...")
		return
	}

	status := "eliminated"
	if p := ecs.Get[component.Player](ct.Registry(), ct.Player(s.launch.PlayerIndex)); p != nil {
		status = fmt.Sprintf("bombs %d/%d  flame %d", p.BombAvailable, p.BombCapacity, p.BombStrength)
	}

	player := draw.PlayerCell(s.launch.PlayerIndex, false)
	c.line(centerX, 1, fmt.Sprintf("%s%s%s  %s  tick %-6d", player.Color, player.Glyph, draw.ColorReset, status, ct.TickCount()))
	c.line(centerX, 2, fmt.Sprintf("confirmed %-6d pending %-4d", s.runner.ConfirmedTick(), s.update.PendingCount()))
}

// canvasMoved reports whether the canvas must move to the given origin.
func (c *Client) canvasMoved(col, row int) bool {
	oc, or := c.canvas.Origin()
	return oc != col || or != row
}

func (c *Client) drawResult(centerX, centerY int) {
	row := c.drawTitle(centerX, centerY-6)

	var text string
	winner, ok := c.state.result.Winner()
	switch {
	case !ok:
		text = "DRAW"
	case winner == c.state.launch.PlayerIndex:
		text = "YOU WIN"
	default:
		text = fmt.Sprintf("PLAYER %d WINS", int(winner)+1)
	}

	c.line(centerX, row+1, text)
	if blink() {
		c.line(centerX, row+3, ">>  Press SPACE to go back to the lobby  <<")
	} else {
		c.chunkWriter.ClearLine(row + 3)
	}
	c.line(centerX, row+5, "Q  . . . . . .  Quit")
}

func (c *Client) drawRefused(centerX, centerY int) {
	row := c.drawTitle(centerX, centerY-6)

	reason := "The server refused the connection."
	switch c.state.refusal {
	case message.AuthenticationBadProtocol:
		reason = "The server speaks another version of the protocol."
	case message.AuthenticationBlacklisted:
		reason = "Too many games left early. Come back later."
	}

	c.line(centerX, row+1, reason)
	c.line(centerX, row+3, "ENTER to retry, Q to quit")
}
