// Package schedule runs delayed calls on a single goroutine.
package schedule

import (
	"context"
	"time"

	"github.com/tomz197/bomb-arena/internal/signal"
)

// Scheduler registers delayed calls. Every call is made on the goroutine
// driving the scheduler. A call is cancelled by disconnecting the returned
// connection; the connection is disconnected before the call is made.
type Scheduler interface {
	After(d time.Duration, fn func()) signal.Connection
	Now() time.Time
}

// Loop is a Scheduler backed by the wall clock. Calls are queued in a
// channel and executed by Run.
type Loop struct {
	calls chan func()
}

// NewLoop creates a loop whose queue holds up to size pending calls.
func NewLoop(size int) *Loop {
	return &Loop{calls: make(chan func(), size)}
}

// Now returns the current time.
func (l *Loop) Now() time.Time { return time.Now() }

// After calls fn on the loop goroutine once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) signal.Connection {
	c := signal.NewConnection()

	time.AfterFunc(d, func() {
		l.Post(func() {
			if !c.Connected() {
				return
			}
			c.Disconnect()
			fn()
		})
	})

	return c
}

// Post queues fn for execution on the loop goroutine. It may be called
// from any goroutine and blocks while the queue is full.
func (l *Loop) Post(fn func()) {
	l.calls <- fn
}

// Calls exposes the queue, for owners selecting over several channels.
// Each received function must be called on the loop goroutine.
func (l *Loop) Calls() <-chan func() {
	return l.calls
}

// Run executes the queued calls until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.calls:
			fn()
		}
	}
}
