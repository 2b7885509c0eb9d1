package contest

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/game/config"
)

// Recorder receives the inputs of every tick before it runs.
type Recorder interface {
	Record(c *Contest) error
}

// Runner advances a contest according to the elapsed wall-clock time.
type Runner struct {
	contest  *Contest
	counter  TickCounter
	recorder Recorder

	// BeforeTick, when set, is called before each tick to set the actions
	// of the players.
	BeforeTick func(c *Contest)

	// RecordError is the first error returned by the recorder. Recording
	// stops after an error; the contest goes on.
	RecordError error
}

// NewRunner creates a runner for c. recorder may be nil.
func NewRunner(c *Contest, recorder Recorder) *Runner {
	return &Runner{contest: c, recorder: recorder}
}

// Contest returns the contest driven by the runner.
func (r *Runner) Contest() *Contest { return r.contest }

// Run executes as many ticks as fit in the time elapsed since the previous
// call. It stops at the first tick ending the game.
func (r *Runner) Run(elapsed time.Duration) Result {
	n := r.counter.Add(elapsed, config.TickInterval)

	for i := 0; i != n; i++ {
		if result := r.Step(); !result.IsStillRunning() {
			return result
		}
	}

	return StillRunning()
}

// Step executes exactly one tick.
func (r *Runner) Step() Result {
	if r.BeforeTick != nil {
		r.BeforeTick(r.contest)
	}

	if r.recorder != nil && r.RecordError == nil {
		r.RecordError = r.recorder.Record(r.contest)
	}

	return r.contest.Tick()
}
