package draw

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// maxChunkSize is the maximum number of bytes written at once. It stays
// below the usual MTU so that frames flow smoothly over SSH.
const maxChunkSize = 1400

// ChunkWriter accumulates a frame and writes it in chunks on Flush.
type ChunkWriter struct {
	buf    strings.Builder
	bufw   *bufio.Writer
	numBuf [20]byte
	offCol int
	offRow int
}

// NewChunkWriter creates a ChunkWriter writing to w. The offsets are added
// to every cursor move.
func NewChunkWriter(w io.Writer, offsetCol, offsetRow int) *ChunkWriter {
	return &ChunkWriter{
		bufw:   bufio.NewWriterSize(w, 8192),
		offCol: offsetCol,
		offRow: offsetRow,
	}
}

// SetOffset updates the cursor offset, e.g. after a resize.
func (cw *ChunkWriter) SetOffset(offsetCol, offsetRow int) {
	cw.offCol = offsetCol
	cw.offRow = offsetRow
}

// MoveCursor appends an ANSI cursor position sequence. col and row are
// 1-based.
func (cw *ChunkWriter) MoveCursor(col, row int) {
	cw.buf.WriteString("\033[")
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(row+cw.offRow), 10))
	cw.buf.WriteByte(';')
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(col+cw.offCol), 10))
	cw.buf.WriteByte('H')
}

func (cw *ChunkWriter) Write(p []byte) (n int, err error) {
	return cw.buf.Write(p)
}

func (cw *ChunkWriter) WriteString(s string) {
	cw.buf.WriteString(s)
}

// WriteAt writes s at the given 1-based position.
func (cw *ChunkWriter) WriteAt(col, row int, s string) {
	cw.MoveCursor(col, row)
	cw.buf.WriteString(s)
}

// WriteCentered writes s centered on the given column.
func (cw *ChunkWriter) WriteCentered(centerCol, row int, s string) {
	cw.WriteAt(max(1, centerCol-TextWidth(s)/2), row, s)
}

// ClearLine erases the given row.
func (cw *ChunkWriter) ClearLine(row int) {
	cw.MoveCursor(1, row)
	cw.buf.WriteString("\033[2K")
}

// Clear erases the whole terminal.
func (cw *ChunkWriter) Clear() {
	cw.buf.WriteString("\033[H\033[2J")
}

var _ io.Writer = (*ChunkWriter)(nil)

// Flush writes the accumulated frame to the underlying writer.
func (cw *ChunkWriter) Flush() error {
	data := cw.buf.String()
	cw.buf.Reset()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		if _, err := cw.bufw.WriteString(chunk); err != nil {
			return err
		}
		data = data[len(chunk):]
	}
	return cw.bufw.Flush()
}

// TextWidth returns the number of columns taken by s, ignoring escape
// sequences.
func TextWidth(s string) int {
	n := 0
	escape := false
	for _, r := range s {
		switch {
		case escape:
			if r >= '@' && r <= '~' && r != '[' {
				escape = false
			}
		case r == '\033':
			escape = true
		default:
			n++
		}
	}
	return n
}

// TermSizeFunc returns the terminal dimensions.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc returns the size of the terminal on os.Stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// ClearScreen clears the terminal and moves the cursor to the top-left.
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J")
}

func HideCursor(w io.Writer) {
	fmt.Fprint(w, "\033[?25l")
}

func ShowCursor(w io.Writer) {
	fmt.Fprint(w, "\033[?25h")
}
