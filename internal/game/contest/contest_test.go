package contest

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/ecs"
	"github.com/tomz197/bomb-arena/internal/game/factory"
	"github.com/tomz197/bomb-arena/internal/game/random"
)

// scriptedActions returns a pseudo-random but reproducible action for each
// player and tick.
func scriptedActions(seed uint64, ticks, players int) [][]component.PlayerAction {
	rng := random.New(seed)
	out := make([][]component.PlayerAction, ticks)

	for t := range out {
		out[t] = make([]component.PlayerAction, players)
		for p := range out[t] {
			out[t][p] = component.PlayerAction{
				Movement: component.Movement(rng.Intn(int(component.MovementCount))),
				DropBomb: rng.Intn(10) == 0,
			}
		}
	}

	return out
}

func play(fp Fingerprint, actions [][]component.PlayerAction) (*Contest, Result) {
	c := New(fp)
	result := StillRunning()

	for _, tick := range actions {
		for p, a := range tick {
			c.SetAction(uint8(p), a)
		}
		if result = c.Tick(); !result.IsStillRunning() {
			break
		}
	}

	return c, result
}

func TestContestIsDeterministic(t *testing.T) {
	fp := DefaultFingerprint(0xb1a5, 4)
	actions := scriptedActions(99, 2000, 4)

	first, r1 := play(fp, actions)
	second, r2 := play(fp, actions)

	if r1 != r2 {
		t.Errorf("results differ: %v and %v", r1, r2)
	}
	if first.TickCount() != second.TickCount() {
		t.Fatalf("tick counts differ: %d and %d", first.TickCount(), second.TickCount())
	}
	if first.Hash() != second.Hash() {
		t.Errorf("states differ after %d ticks", first.TickCount())
	}
}

func TestCloneFollowsOriginal(t *testing.T) {
	fp := DefaultFingerprint(42, 2)
	actions := scriptedActions(3, 400, 2)

	c := New(fp)
	var clone *Contest

	for i, tick := range actions {
		if i == 150 {
			clone = c.Clone()
		}
		if clone != nil {
			for p, a := range tick {
				clone.SetAction(uint8(p), a)
			}
			clone.Tick()
		}
		for p, a := range tick {
			c.SetAction(uint8(p), a)
		}
		c.Tick()
	}

	if c.Hash() != clone.Hash() {
		t.Errorf("clone diverged from the original")
	}
}

func TestSeedChangesLevel(t *testing.T) {
	if New(DefaultFingerprint(1, 2)).Hash() == New(DefaultFingerprint(2, 2)).Hash() {
		t.Errorf("two seeds produced the same level")
	}
}

func TestPlayersStartInCorners(t *testing.T) {
	c := New(DefaultFingerprint(5, 4))
	w, h := int(c.Fingerprint().ArenaWidth), int(c.Fingerprint().ArenaHeight)
	want := [][2]int{{1, 1}, {w - 2, h - 2}, {w - 2, 1}, {1, h - 2}}

	for i, cell := range want {
		e := c.Player(uint8(i))
		if e.IsNull() {
			t.Fatalf("player %d not found", i)
		}
		p := ecs.Get[component.FractionalPositionOnGrid](c.Registry(), e)
		if p.GridAlignedX() != cell[0] || p.GridAlignedY() != cell[1] {
			t.Errorf("player %d starts in (%d, %d), want %v", i, p.GridAlignedX(), p.GridAlignedY(), cell)
		}
	}

	if !c.PlayersCanMeet() {
		t.Errorf("players cannot meet")
	}
}

func TestCheckGameOver(t *testing.T) {
	newRegistry := func(players int) *ecs.Registry {
		r := ecs.NewRegistry()
		for i := 0; i != players; i++ {
			factory.Player(r, uint8(i), 1, 1)
		}
		return r
	}

	if got := CheckGameOver(newRegistry(0)); !got.IsDraw() {
		t.Errorf("no player: %v, want draw", got)
	}

	if got := CheckGameOver(newRegistry(1)); got != GameOver(0) {
		t.Errorf("one player: %v, want game over for player 0", got)
	}

	r := newRegistry(2)
	timer := factory.GameTimer(r, time.Second)
	if got := CheckGameOver(r); !got.IsStillRunning() {
		t.Errorf("two players with time left: %v, want still running", got)
	}

	ecs.Get[component.Timer](r, timer).Duration = 0
	if got := CheckGameOver(r); !got.IsDraw() {
		t.Errorf("two players without time: %v, want draw", got)
	}

	r = newRegistry(2)
	ecs.Each(r, func(e ecs.Entity, p *component.Player) {
		if p.Index == 0 {
			ecs.Get[component.AnimationState](r, e).TransitionTo(component.AnimationPlayerBurn)
		}
	})
	if got := CheckGameOver(r); !got.IsStillRunning() {
		t.Errorf("one player dying: %v, want still running", got)
	}
}

func TestKickedPlayerLeaves(t *testing.T) {
	c := New(DefaultFingerprint(8, 2))
	c.KickPlayer(1)

	if got := c.Tick(); got != GameOver(0) {
		t.Errorf("result = %v, want game over for player 0", got)
	}
	if !c.Player(1).IsNull() {
		t.Errorf("kicked player is still in the game")
	}
}

func TestTickCounter(t *testing.T) {
	step := 20 * time.Millisecond

	var one TickCounter
	if n := one.Add(130*time.Millisecond, step); n != 6 {
		t.Errorf("Add(130ms) = %d, want 6", n)
	}
	if one.Remainder() != 10*time.Millisecond {
		t.Errorf("remainder = %v, want 10ms", one.Remainder())
	}

	var many TickCounter
	total := 0
	for i := 0; i != 13; i++ {
		total += many.Add(10*time.Millisecond, step)
	}
	if total != 6 || many.Remainder() != one.Remainder() {
		t.Errorf("13×10ms gave %d ticks and %v left, want 6 and 10ms", total, many.Remainder())
	}
}

func TestRunnerRunsWholeTicks(t *testing.T) {
	c := New(DefaultFingerprint(11, 2))
	r := NewRunner(c, nil)

	calls := 0
	r.BeforeTick = func(*Contest) { calls++ }

	r.Run(config.TickInterval*3 + config.TickInterval/2)
	r.Run(config.TickInterval / 2)

	if c.TickCount() != 4 || calls != 4 {
		t.Errorf("ran %d ticks with %d callbacks, want 4", c.TickCount(), calls)
	}
}

func TestTimelineRoundTrip(t *testing.T) {
	fp := DefaultFingerprint(77, 3)
	actions := scriptedActions(5, 300, 3)

	var buf bytes.Buffer
	tw, err := NewTimelineWriter(&buf, fp)
	if err != nil {
		t.Fatalf("NewTimelineWriter: %v", err)
	}

	c := New(fp)
	runner := NewRunner(c, tw)
	tick := 0
	kicked := false
	runner.BeforeTick = func(c *Contest) {
		for p, a := range actions[tick] {
			c.SetAction(uint8(p), a)
		}
		if tick == 200 {
			kicked = !c.Player(2).IsNull()
			c.KickPlayer(2)
		}
		tick++
	}

	for tick < len(actions) {
		if !runner.Step().IsStillRunning() {
			break
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if runner.RecordError != nil {
		t.Fatalf("recording: %v", runner.RecordError)
	}

	tl, err := LoadTimeline(&buf)
	if err != nil {
		t.Fatalf("LoadTimeline: %v", err)
	}

	if tl.Fingerprint != fp {
		t.Errorf("fingerprint = %+v, want %+v", tl.Fingerprint, fp)
	}
	if len(tl.Ticks) != int(c.TickCount()) {
		t.Fatalf("%d ticks loaded, want %d", len(tl.Ticks), c.TickCount())
	}
	if kicked {
		if k := tl.Ticks[200].Kicks; len(k) != 1 || k[0] != 2 {
			t.Errorf("kicks of tick 200 = %v, want [2]", k)
		}
	}

	replayed, _ := tl.Replay(nil)
	if replayed.Hash() != c.Hash() {
		t.Errorf("replay diverged from the recorded game")
	}
}

func TestLoadTimelineRejectsGarbage(t *testing.T) {
	if _, err := LoadTimeline(bytes.NewReader([]byte("NOPE and some more bytes to fill"))); !errors.Is(err, ErrBadMagic) {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}

	var buf bytes.Buffer
	fp := DefaultFingerprint(1, 2)
	tw, _ := NewTimelineWriter(&buf, fp)
	tw.Close()

	data := buf.Bytes()
	data[20] = 0
	if _, err := LoadTimeline(bytes.NewReader(data)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("zero players: err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadTimelineRejectsInvalidFingerprint(t *testing.T) {
	for _, tc := range []struct {
		name   string
		offset int
		value  byte
	}{
		{"too many players", 20, 9},
		{"brick wall probability", 21, 200},
		{"narrow arena", 22, 3},
		{"flat arena", 23, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			tw, err := NewTimelineWriter(&buf, DefaultFingerprint(1, 2))
			if err != nil {
				t.Fatalf("NewTimelineWriter: %v", err)
			}
			if err := tw.WriteTick(make([]component.PlayerAction, 2), nil); err != nil {
				t.Fatalf("WriteTick: %v", err)
			}
			tw.Close()

			data := buf.Bytes()
			data[tc.offset] = tc.value

			tl, err := LoadTimeline(bytes.NewReader(data))
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("err = %v, want ErrUnsupportedFormat", err)
			}
			if tl != nil {
				t.Errorf("timeline returned for an invalid fingerprint")
			}
		})
	}
}
