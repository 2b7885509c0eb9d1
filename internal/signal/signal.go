// Package signal provides typed observer lists. Signals are not safe for
// concurrent use: every Connect, Emit and Disconnect must happen on the
// goroutine owning the signal, usually a schedule.Loop.
package signal

// Connection is the link between a signal, or a scheduled call, and a
// callback. The zero Connection is disconnected.
type Connection struct {
	state *connectionState
}

type connectionState struct {
	connected bool
}

// NewConnection returns a connected Connection not attached to any signal.
// Schedulers use it to make their delayed calls cancellable.
func NewConnection() Connection {
	return Connection{state: &connectionState{connected: true}}
}

// Disconnect prevents any further call to the callback. It is safe to call
// it more than once.
func (c Connection) Disconnect() {
	if c.state != nil {
		c.state.connected = false
	}
}

// Connected reports whether the callback can still be called.
func (c Connection) Connected() bool {
	return c.state != nil && c.state.connected
}

type slot[T any] struct {
	state *connectionState
	fn    func(T)
}

// Signal calls its connected callbacks in connection order each time it is
// emitted. The zero Signal is ready to use.
type Signal[T any] struct {
	slots []slot[T]
}

// Connect adds fn to the callbacks of the signal.
func (s *Signal[T]) Connect(fn func(T)) Connection {
	c := NewConnection()

	// Rebuild the list instead of filtering in place: an Emit in progress
	// may still be iterating over the previous one.
	kept := make([]slot[T], 0, len(s.slots)+1)
	for _, sl := range s.slots {
		if sl.state.connected {
			kept = append(kept, sl)
		}
	}

	s.slots = append(kept, slot[T]{state: c.state, fn: fn})
	return c
}

// Emit calls the connected callbacks with v. Callbacks connected during
// the emission are not called; callbacks disconnected during the emission
// are not called if they were not called yet.
func (s *Signal[T]) Emit(v T) {
	for _, sl := range s.slots {
		if sl.state.connected {
			sl.fn(v)
		}
	}
}

// Len returns the number of connected callbacks.
func (s *Signal[T]) Len() int {
	n := 0
	for _, sl := range s.slots {
		if sl.state.connected {
			n++
		}
	}
	return n
}

// Void is a signal without argument.
type Void = Signal[struct{}]
