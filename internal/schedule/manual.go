package schedule

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/signal"
)

type manualCall struct {
	due   time.Time
	order uint64
	conn  signal.Connection
	fn    func()
}

// Manual is a Scheduler whose clock only moves when Tick is called. It
// makes timing tests deterministic.
type Manual struct {
	now     time.Time
	pending []manualCall
	order   uint64
}

// NewManual creates a scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current time of the scheduler.
func (m *Manual) Now() time.Time { return m.now }

// After registers fn to be called when the clock reaches Now()+d.
func (m *Manual) After(d time.Duration, fn func()) signal.Connection {
	c := signal.NewConnection()

	m.pending = append(m.pending, manualCall{
		due:   m.now.Add(d),
		order: m.order,
		conn:  c,
		fn:    fn,
	})
	m.order++

	return c
}

// Tick advances the clock by d and makes every call due in the meantime,
// in due order. Calls registered during the tick are made too if they are
// due before the end of the tick.
func (m *Manual) Tick(d time.Duration) {
	end := m.now.Add(d)

	for {
		i := m.next(end)
		if i < 0 {
			break
		}

		call := m.pending[i]
		m.pending = append(m.pending[:i], m.pending[i+1:]...)

		if call.due.After(m.now) {
			m.now = call.due
		}
		call.conn.Disconnect()
		call.fn()
	}

	m.now = end
}

// Pending returns the number of calls still waiting.
func (m *Manual) Pending() int {
	n := 0
	for _, c := range m.pending {
		if c.conn.Connected() {
			n++
		}
	}
	return n
}

// next returns the index of the earliest connected call due at or before
// end, or -1. Disconnected calls are dropped on the way.
func (m *Manual) next(end time.Time) int {
	kept := m.pending[:0]
	for _, c := range m.pending {
		if c.conn.Connected() {
			kept = append(kept, c)
		}
	}
	m.pending = kept

	best := -1
	for i, c := range m.pending {
		if c.due.After(end) {
			continue
		}
		if best < 0 || c.due.Before(m.pending[best].due) ||
			(c.due.Equal(m.pending[best].due) && c.order < m.pending[best].order) {
			best = i
		}
	}

	return best
}
