package contest

import "fmt"

type resultKind uint8

const (
	stillRunning resultKind = iota
	draw
	gameOver
)

// Result is the state of a contest after a tick.
type Result struct {
	kind   resultKind
	winner uint8
}

// StillRunning is the result of a contest that goes on.
func StillRunning() Result { return Result{kind: stillRunning} }

// Draw is the result of a contest without winner.
func Draw() Result { return Result{kind: draw} }

// GameOver is the result of a contest won by a player.
func GameOver(winner uint8) Result { return Result{kind: gameOver, winner: winner} }

// IsStillRunning reports whether the contest goes on.
func (r Result) IsStillRunning() bool { return r.kind == stillRunning }

// IsDraw reports whether the contest ended without winner.
func (r Result) IsDraw() bool { return r.kind == draw }

// Winner returns the index of the winning player. ok is false unless the
// contest was won.
func (r Result) Winner() (index uint8, ok bool) {
	return r.winner, r.kind == gameOver
}

func (r Result) String() string {
	switch r.kind {
	case stillRunning:
		return "still running"
	case draw:
		return "draw"
	}
	return fmt.Sprintf("won by player %d", r.winner)
}
