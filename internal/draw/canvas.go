package draw

import "strings"

// CellWidth is the number of terminal columns of an arena cell.
const CellWidth = 2

// Cell is the content of one arena cell on screen.
type Cell struct {
	Glyph string // CellWidth columns
	Color string
}

// Blank is an empty floor cell.
var Blank = Cell{Glyph: "  "}

// Canvas is a grid of cells drawn at a fixed place of the terminal. Only
// the cells that changed since the previous frame are written.
type Canvas struct {
	cols, rows int
	cells      []Cell
	shown      []Cell
	force      bool

	// 1-based terminal position of the top-left cell.
	originCol int
	originRow int
}

// NewCanvas creates a canvas of cols×rows cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{originCol: 1, originRow: 1}
	c.Resize(cols, rows)
	return c
}

// Resize changes the number of cells. Everything is redrawn on the next
// frame.
func (c *Canvas) Resize(cols, rows int) {
	if cols == c.cols && rows == c.rows {
		return
	}

	c.cols, c.rows = cols, rows
	c.cells = make([]Cell, cols*rows)
	c.shown = make([]Cell, cols*rows)
	c.Clear()
	c.force = true
}

func (c *Canvas) Cols() int { return c.cols }
func (c *Canvas) Rows() int { return c.rows }

// Width returns the number of terminal columns covered by the canvas.
func (c *Canvas) Width() int { return c.cols * CellWidth }

// SetOrigin moves the canvas on the terminal.
func (c *Canvas) SetOrigin(col, row int) {
	if col != c.originCol || row != c.originRow {
		c.originCol, c.originRow = col, row
		c.force = true
	}
}

func (c *Canvas) Origin() (col, row int) {
	return c.originCol, c.originRow
}

// Clear fills the canvas with blank cells.
func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = Blank
	}
}

// Set changes the cell at (x, y). Out of range cells are ignored.
func (c *Canvas) Set(x, y int, cell Cell) {
	if x >= 0 && x < c.cols && y >= 0 && y < c.rows {
		c.cells[y*c.cols+x] = cell
	}
}

// At returns the cell at (x, y).
func (c *Canvas) At(x, y int) Cell {
	if x >= 0 && x < c.cols && y >= 0 && y < c.rows {
		return c.cells[y*c.cols+x]
	}
	return Blank
}

// ForceRedraw makes the next Render write every cell.
func (c *Canvas) ForceRedraw() {
	c.force = true
}

// Render writes the changed cells to cw.
func (c *Canvas) Render(cw *ChunkWriter) {
	for y := 0; y < c.rows; y++ {
		// Cursor moves are skipped for consecutive changed cells.
		following := false
		for x := 0; x < c.cols; x++ {
			i := y*c.cols + x
			cell := c.cells[i]
			if !c.force && cell == c.shown[i] {
				following = false
				continue
			}

			if !following {
				cw.MoveCursor(c.originCol+x*CellWidth, c.originRow+y)
			}
			if cell.Color != "" {
				cw.WriteString(cell.Color)
				cw.WriteString(cell.Glyph)
				cw.WriteString(ColorReset)
			} else {
				cw.WriteString(cell.Glyph)
			}

			c.shown[i] = cell
			following = true
		}
	}
	c.force = false
}

// RenderBorder draws a box around the canvas. The origin must leave room
// for it.
func (c *Canvas) RenderBorder(cw *ChunkWriter) {
	left := c.originCol - 1
	top := c.originRow - 1
	right := c.originCol + c.Width()
	bottom := c.originRow + c.rows

	line := strings.Repeat("─", c.Width())
	cw.WriteAt(left, top, "┌"+line+"┐")
	for row := top + 1; row < bottom; row++ {
		cw.WriteAt(left, row, "│")
		cw.WriteAt(right, row, "│")
	}
	cw.WriteAt(left, bottom, "└"+line+"┘")
}
