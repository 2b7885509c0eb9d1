package component

import "github.com/tomz197/bomb-arena/internal/game/arena"

// FogState is the phase of a fog cell.
type FogState uint8

const (
	FogRollIn FogState = iota
	FogStable
	FogBlown
	FogRestore
	FogHiding
)

// String returns the name of the state.
func (s FogState) String() string {
	switch s {
	case FogRollIn:
		return "roll_in"
	case FogStable:
		return "stable"
	case FogBlown:
		return "blown"
	case FogRestore:
		return "restore"
	case FogHiding:
		return "hiding"
	}
	return "invalid"
}

// FogOfWar is the fog covering one cell for one player. The Timer of the
// same entity drives the transitions.
type FogOfWar struct {
	PlayerIndex  uint8
	Opacity      uint8
	Neighborhood arena.Neighborhood
	State        FogState
}
