package lockstep

import (
	"testing"

	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/contest"
	"github.com/tomz197/bomb-arena/internal/net/exchange"
)

type recorder struct {
	pushed []component.PlayerAction
}

func (r *recorder) Push(a component.PlayerAction) {
	r.pushed = append(r.pushed, a)
}

func localAction(tick int) component.PlayerAction {
	moves := []component.Movement{
		component.MovementRight, component.MovementRight, component.MovementDown,
		component.MovementIdle, component.MovementDown, component.MovementLeft,
	}
	return component.PlayerAction{Movement: moves[tick%len(moves)], DropBomb: tick == 4}
}

func remoteAction(tick int) component.PlayerAction {
	moves := []component.Movement{component.MovementUp, component.MovementLeft, component.MovementUp}
	return component.PlayerAction{Movement: moves[tick%len(moves)], DropBomb: tick == 2}
}

func TestRunnerMatchesDirectReplay(t *testing.T) {
	fp := contest.DefaultFingerprint(1234, 2)
	sink := &recorder{}
	r := NewRunner(contest.New(fp), sink, 0)

	const played, confirmed = 10, 6

	for i := 0; i != played; i++ {
		r.Run(config.TickInterval, localAction(i))
	}
	if len(sink.pushed) != played || r.LocalTick() != played {
		t.Fatalf("pushed %d actions in %d ticks", len(sink.pushed), r.LocalTick())
	}

	remote := make([]component.PlayerAction, confirmed)
	for i := range remote {
		remote[i] = remoteAction(i)
	}
	r.QueueUpdate(exchange.ServerUpdate{
		FromTick: 0,
		Actions:  [][]component.PlayerAction{sink.pushed[:confirmed], remote},
	})

	r.Run(config.TickInterval, localAction(played))

	if r.ConfirmedTick() != confirmed || r.LocalTick() != played+1 {
		t.Fatalf("confirmed %d, local %d", r.ConfirmedTick(), r.LocalTick())
	}

	direct := contest.New(fp)
	for i := 0; i != confirmed; i++ {
		direct.SetAction(0, localAction(i))
		direct.SetAction(1, remote[i])
		direct.Tick()
	}

	if r.confirmed.Hash() != direct.Hash() {
		t.Fatalf("confirmed state differs from the direct replay")
	}

	predicted := remote[confirmed-1]
	predicted.DropBomb = false

	for i := confirmed; i != played+1; i++ {
		direct.SetAction(0, localAction(i))
		direct.SetAction(1, predicted)
		direct.Tick()
	}

	if r.Contest().Hash() != direct.Hash() {
		t.Errorf("predicted state differs from the direct replay")
	}
	if r.Contest().TickCount() != played+1 {
		t.Errorf("contest at tick %d, want %d", r.Contest().TickCount(), played+1)
	}
}

func TestRunnerWithoutTimeDoesNothing(t *testing.T) {
	sink := &recorder{}
	r := NewRunner(contest.New(contest.DefaultFingerprint(1, 2)), sink, 1)

	if result := r.Run(config.TickInterval/2, component.PlayerAction{}); !result.IsStillRunning() {
		t.Fatalf("result = %v", result)
	}
	if len(sink.pushed) != 0 {
		t.Errorf("pushed %d actions without a full tick", len(sink.pushed))
	}

	r.Run(config.TickInterval/2, component.PlayerAction{})
	if len(sink.pushed) != 1 {
		t.Errorf("pushed %d actions after a full tick, want 1", len(sink.pushed))
	}
}

func TestRunnerRejectsOutOfOrderUpdate(t *testing.T) {
	r := NewRunner(contest.New(contest.DefaultFingerprint(1, 2)), &recorder{}, 0)

	defer func() {
		if recover() == nil {
			t.Errorf("out of order update was accepted")
		}
	}()

	r.QueueUpdate(exchange.ServerUpdate{FromTick: 3, Actions: make([][]component.PlayerAction, 2)})
}
