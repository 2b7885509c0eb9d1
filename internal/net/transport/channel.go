package transport

import (
	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/signal"
)

// MessageChannel sends and receives the messages of one session and
// channel of a stream.
type MessageChannel struct {
	stream  *MessageStream
	session uint32
	channel uint32
}

// NewMessageChannel creates a channel over stream.
func NewMessageChannel(stream *MessageStream, session, channel uint32) *MessageChannel {
	return &MessageChannel{stream: stream, session: session, channel: channel}
}

// Rebind changes the session and channel of the messages. Listeners
// already connected follow the change.
func (c *MessageChannel) Rebind(session, channel uint32) {
	c.session = session
	c.channel = channel
}

func (c *MessageChannel) Session() uint32 { return c.session }
func (c *MessageChannel) Channel() uint32 { return c.channel }

// Send transmits r on the session and channel.
func (c *MessageChannel) Send(r message.Record) error {
	return c.stream.Send(message.New(c.session, c.channel, r))
}

// ConnectToMessage registers fn to be called with the messages received on
// the session and channel.
func (c *MessageChannel) ConnectToMessage(fn func(message.Message)) signal.Connection {
	return c.stream.ConnectToMessage(func(m message.Message) {
		if m.Session == c.session && m.Channel == c.channel {
			fn(m)
		}
	})
}
