// Package lockstep runs the local copy of an online contest. The local
// player moves immediately; the other players are predicted until the
// server confirms what they did, at which point the contest is rebuilt from
// the last confirmed state.
package lockstep

import (
	"fmt"
	"time"

	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/net/exchange"
)

// ActionSink receives the actions of the local player, one per tick.
type ActionSink interface {
	Push(a component.PlayerAction)
}

// Runner advances a contest shared with the server.
type Runner struct {
	local       uint8
	playerCount int
	sink        ActionSink
	counter     contest.TickCounter

	current   *contest.Contest
	confirmed *contest.Contest

	confirmedTick uint32
	completedTick uint32

	// server holds the confirmed actions not applied yet, by player.
	server [][]component.PlayerAction
	// unconfirmed holds, for the local player, the actions of the ticks
	// completed but not confirmed; for the others, their predicted action.
	unconfirmed [][]component.PlayerAction
}

// NewRunner creates a runner for c, in its initial state, played by the
// player of index local. The actions of the local player are pushed to
// sink.
func NewRunner(c *contest.Contest, sink ActionSink, local uint8) *Runner {
	n := int(c.Fingerprint().PlayerCount)
	if int(local) >= n {
		panic(fmt.Sprintf("lockstep: local player %d in a game of %d", local, n))
	}

	r := &Runner{
		local:       local,
		playerCount: n,
		sink:        sink,
		current:     c,
		confirmed:   c.Clone(),
		server:      make([][]component.PlayerAction, n),
		unconfirmed: make([][]component.PlayerAction, n),
	}

	for p := range r.unconfirmed {
		if p != int(local) {
			r.unconfirmed[p] = []component.PlayerAction{{}}
		}
	}

	return r
}

// Contest returns the predicted state of the game. The returned contest is
// replaced each time the runner synchronizes with the server.
func (r *Runner) Contest() *contest.Contest { return r.current }

// LocalTick returns the number of ticks played locally.
func (r *Runner) LocalTick() uint32 { return r.completedTick }

// ConfirmedTick returns the number of ticks confirmed by the server.
func (r *Runner) ConfirmedTick() uint32 { return r.confirmedTick }

// QueueUpdate stores the actions confirmed by the server. They are applied
// during the next Run.
func (r *Runner) QueueUpdate(u exchange.ServerUpdate) {
	if want := r.confirmedTick + uint32(len(r.server[0])); u.FromTick != want {
		panic(fmt.Sprintf("lockstep: update from tick %d, want %d", u.FromTick, want))
	}
	if len(u.Actions) != r.playerCount {
		panic(fmt.Sprintf("lockstep: update for %d players, want %d", len(u.Actions), r.playerCount))
	}

	for p := range r.server {
		r.server[p] = append(r.server[p], u.Actions[p]...)
	}
}

// Run plays the ticks fitting in the elapsed time, the local player doing
// action in each of them. The result is computed on the confirmed state
// only: a predicted game over is not reported.
func (r *Runner) Run(elapsed time.Duration, action component.PlayerAction) contest.Result {
	n := r.counter.Add(elapsed, config.TickInterval)
	if n == 0 {
		return contest.StillRunning()
	}

	if len(r.server[0]) != 0 {
		if result := r.syncWithServer(); !result.IsStillRunning() {
			return result
		}
		r.applyUnconfirmedActions()
	}

	for i := 0; i != n; i++ {
		r.applyCurrentActions(action)
		r.sink.Push(action)
		r.current.Tick()
	}

	r.completedTick += uint32(n)
	return contest.StillRunning()
}

func (r *Runner) syncWithServer() contest.Result {
	ticks := len(r.server[0])
	result := contest.StillRunning()

	for t := 0; t != ticks && result.IsStillRunning(); t++ {
		for p := range r.server {
			r.confirmed.SetAction(uint8(p), r.server[p][t])
		}
		result = r.confirmed.Tick()
	}

	// The other players are predicted to keep moving the way they did,
	// without dropping more bombs.
	for p := range r.unconfirmed {
		if p != int(r.local) {
			last := r.server[p][ticks-1]
			last.DropBomb = false
			r.unconfirmed[p][0] = last
		}
	}

	r.confirmedTick += uint32(ticks)
	for p := range r.server {
		r.server[p] = r.server[p][:0]
	}

	r.current = r.confirmed.Clone()

	keep := int(r.completedTick - r.confirmedTick)
	local := r.unconfirmed[r.local]
	r.unconfirmed[r.local] = append(local[:0], local[len(local)-keep:]...)

	return result
}

func (r *Runner) applyUnconfirmedActions() {
	for i := range r.unconfirmed[r.local] {
		for p, actions := range r.unconfirmed {
			r.current.SetAction(uint8(p), actions[min(len(actions)-1, i)])
		}
		r.current.Tick()
	}
}

func (r *Runner) applyCurrentActions(local component.PlayerAction) {
	r.unconfirmed[r.local] = append(r.unconfirmed[r.local], local)

	for p, actions := range r.unconfirmed {
		r.current.SetAction(uint8(p), actions[len(actions)-1])
	}
}
