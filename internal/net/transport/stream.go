package transport

import (
	"context"

	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/signal"
)

// MessageStream dispatches the messages of a connection to its listeners.
// Listeners are called on the goroutine calling Dispatch, usually through
// Pump on the goroutine of a schedule.Loop.
type MessageStream struct {
	conn     Conn
	received signal.Signal[message.Message]

	// Closed is emitted once the connection has been closed by Pump.
	Closed signal.Void
}

// NewMessageStream creates a stream over conn.
func NewMessageStream(conn Conn) *MessageStream {
	return &MessageStream{conn: conn}
}

// Send transmits m.
func (s *MessageStream) Send(m message.Message) error {
	return s.conn.Send(m)
}

// ConnectToMessage registers fn to be called with every received message.
func (s *MessageStream) ConnectToMessage(fn func(message.Message)) signal.Connection {
	return s.received.Connect(fn)
}

// Dispatch calls the listeners with m.
func (s *MessageStream) Dispatch(m message.Message) {
	s.received.Emit(m)
}

// Poll dispatches the messages already received, without blocking. It
// returns false once the connection is closed.
func (s *MessageStream) Poll() bool {
	for {
		select {
		case m, ok := <-s.conn.Messages():
			if !ok {
				return false
			}
			s.Dispatch(m)
		default:
			return true
		}
	}
}

// Pump forwards the received messages to post until ctx is done or the
// connection closes. post must run its argument on the goroutine owning
// the stream.
func (s *MessageStream) Pump(ctx context.Context, post func(func())) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-s.conn.Messages():
			if !ok {
				post(func() { s.Closed.Emit(struct{}{}) })
				return
			}
			post(func() { s.Dispatch(m) })
		}
	}
}

// Close closes the connection.
func (s *MessageStream) Close() error {
	return s.conn.Close()
}
