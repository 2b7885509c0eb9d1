package contest

import "time"

// TickCounter converts elapsed time into a whole number of steps, keeping
// the remainder for the next call.
type TickCounter struct {
	remainder time.Duration
}

// Add accumulates elapsed and returns how many complete steps fit in the
// accumulated time.
func (c *TickCounter) Add(elapsed, step time.Duration) int {
	c.remainder += elapsed

	n := c.remainder / step
	c.remainder -= n * step

	return int(n)
}

// Remainder returns the time accumulated since the last complete step.
func (c *TickCounter) Remainder() time.Duration {
	return c.remainder
}
