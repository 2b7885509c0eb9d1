// Package draw renders the console client with ANSI escape sequences.
package draw

// Shade characters from lightest to darkest.
var Shades = []rune{' ', '░', '▒', '▓', '█'}

// ShadeLevel returns a shade character for a value between 0.0 (empty) and
// 1.0 (solid).
func ShadeLevel(intensity float64) rune {
	if intensity <= 0 {
		return Shades[0]
	}
	if intensity >= 1 {
		return Shades[len(Shades)-1]
	}
	idx := int(intensity * float64(len(Shades)-1))
	return Shades[idx]
}

// ShadeGlyph returns a cell glyph shaded by an opacity between 0 and 255.
// A non-zero opacity is never fully transparent.
func ShadeGlyph(opacity uint8) string {
	if opacity == 0 {
		return "  "
	}
	r := ShadeLevel(float64(opacity) / 255)
	if r == Shades[0] {
		r = Shades[1]
	}
	return string([]rune{r, r})
}

// ANSI colors.
const (
	ColorReset         = "\033[0m"
	ColorRed           = "\033[31m"
	ColorGreen         = "\033[32m"
	ColorYellow        = "\033[33m"
	ColorBlue          = "\033[34m"
	ColorMagenta       = "\033[35m"
	ColorCyan          = "\033[36m"
	ColorGray          = "\033[90m"
	ColorBrightRed     = "\033[91m"
	ColorBrightYellow  = "\033[93m"
	ColorBrightCyan    = "\033[96m"
	ColorBrightWhite   = "\033[97m"
	AttributeReverse   = "\033[7m"
	AttributeBold      = "\033[1m"
	AttributeUnderline = "\033[4m"
)

// PlayerColors is the color of each player index.
var PlayerColors = [...]string{ColorBrightCyan, ColorMagenta, ColorGreen, ColorBlue}

// PlayerColor returns the color of a player.
func PlayerColor(index uint8) string {
	return PlayerColors[int(index)%len(PlayerColors)]
}
