package arena

// Neighborhood is a mask of the neighbors of a cell sharing some property.
type Neighborhood uint8

const (
	NeighborUpLeft Neighborhood = 1 << iota
	NeighborUp
	NeighborUpRight
	NeighborLeft
	NeighborRight
	NeighborDownLeft
	NeighborDown
	NeighborDownRight

	NeighborNone Neighborhood = 0
	NeighborAll  Neighborhood = 0xff
)

// neighborOffsets maps each bit to the offset of the neighbor it describes.
var neighborOffsets = [8]struct {
	dx, dy int
	bit    Neighborhood
}{
	{-1, -1, NeighborUpLeft},
	{0, -1, NeighborUp},
	{1, -1, NeighborUpRight},
	{-1, 0, NeighborLeft},
	{1, 0, NeighborRight},
	{-1, 1, NeighborDownLeft},
	{0, 1, NeighborDown},
	{1, 1, NeighborDownRight},
}

// ComputeNeighborhood returns the mask of the neighbors of (x, y) for which
// pred holds. Neighbors outside the width×height grid are never included.
func ComputeNeighborhood(width, height, x, y int, pred func(x, y int) bool) Neighborhood {
	n := NeighborNone

	for _, o := range neighborOffsets {
		nx, ny := x+o.dx, y+o.dy
		if nx < 0 || ny < 0 || nx >= width || ny >= height {
			continue
		}
		if pred(nx, ny) {
			n |= o.bit
		}
	}

	return n
}

// Opposite returns the bit seen from the neighbor described by b, e.g.
// NeighborLeft for NeighborRight.
func (b Neighborhood) Opposite() Neighborhood {
	switch b {
	case NeighborUpLeft:
		return NeighborDownRight
	case NeighborUp:
		return NeighborDown
	case NeighborUpRight:
		return NeighborDownLeft
	case NeighborLeft:
		return NeighborRight
	case NeighborRight:
		return NeighborLeft
	case NeighborDownLeft:
		return NeighborUpRight
	case NeighborDown:
		return NeighborUp
	case NeighborDownRight:
		return NeighborUpLeft
	}
	return NeighborNone
}

// EachNeighbor calls fn with the coordinates of the eight neighbors of
// (x, y) and the bit describing (x, y) as seen from each neighbor.
func EachNeighbor(x, y int, fn func(nx, ny int, fromNeighbor Neighborhood)) {
	for _, o := range neighborOffsets {
		fn(x+o.dx, y+o.dy, o.bit.Opposite())
	}
}
