package arena

import "github.com/tomz197/bomb-arena/internal/game/ecs"

// WorldMap lists every grid-aligned entity per cell. Unlike Arena, a cell
// may hold several entities (a flame over a power-up, a bomb under a flame).
type WorldMap struct {
	width  int
	height int
	cells  [][]ecs.Entity
}

// NewWorldMap creates an empty map.
func NewWorldMap(width, height int) *WorldMap {
	return &WorldMap{
		width:  width,
		height: height,
		cells:  make([][]ecs.Entity, width*height),
	}
}

// Width returns the number of columns.
func (m *WorldMap) Width() int { return m.width }

// Height returns the number of rows.
func (m *WorldMap) Height() int { return m.height }

// EntitiesAt returns the entities in the cell. The slice must not be
// modified and is invalidated by the next change to the cell.
func (m *WorldMap) EntitiesAt(x, y int) []ecs.Entity {
	return m.cells[y*m.width+x]
}

// PutEntity adds e to the cell.
func (m *WorldMap) PutEntity(e ecs.Entity, x, y int) {
	i := y*m.width + x
	m.cells[i] = append(m.cells[i], e)
}

// EraseEntity removes e from the cell, keeping the order of the others.
func (m *WorldMap) EraseEntity(e ecs.Entity, x, y int) {
	i := y*m.width + x
	kept := m.cells[i][:0]
	for _, c := range m.cells[i] {
		if c != e {
			kept = append(kept, c)
		}
	}
	m.cells[i] = kept
}

// EraseEntities empties the cell.
func (m *WorldMap) EraseEntities(x, y int) {
	m.cells[y*m.width+x] = m.cells[y*m.width+x][:0]
}

// Clone returns a deep copy of the map.
func (m *WorldMap) Clone() *WorldMap {
	c := &WorldMap{
		width:  m.width,
		height: m.height,
		cells:  make([][]ecs.Entity, len(m.cells)),
	}
	for i, cell := range m.cells {
		if len(cell) != 0 {
			c.cells[i] = append([]ecs.Entity(nil), cell...)
		}
	}
	return c
}
