package exchange

import (
	"time"

	"github.com/tomz197/bomb-arena/internal/net/message"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/signal"
)

const (
	KeepAliveInterval      = time.Second
	KeepAliveMaxRetryCount = 10
)

// KeepAlive pings the server and reports when it stops answering. Each
// ping consumes a retry and each answer gives one back.
type KeepAlive struct {
	channel *transport.MessageChannel
	sched   schedule.Scheduler
	retries int

	listen signal.Connection
	update signal.Connection

	// Disconnected is emitted when the server did not answer the last
	// KeepAliveMaxRetryCount pings.
	Disconnected signal.Void
}

func NewKeepAlive(stream *transport.MessageStream, sched schedule.Scheduler) *KeepAlive {
	return &KeepAlive{
		channel: transport.NewMessageChannel(stream, 0, 0),
		sched:   sched,
	}
}

// Start pings the server on the given session.
func (k *KeepAlive) Start(session uint32) {
	k.Stop()

	k.channel.Rebind(session, 0)
	k.retries = KeepAliveMaxRetryCount
	k.listen = k.channel.ConnectToMessage(k.interpret)

	k.tick()
}

func (k *KeepAlive) Stop() {
	k.listen.Disconnect()
	k.update.Disconnect()
}

func (k *KeepAlive) tick() {
	if k.retries == 0 {
		logger.Info("Disconnected.")

		k.Stop()
		k.Disconnected.Emit(struct{}{})
		return
	}

	k.update = k.sched.After(KeepAliveInterval, k.tick)

	k.retries--
	send(k.channel, message.KeepAlive{})
}

func (k *KeepAlive) interpret(m message.Message) {
	if m.Type == message.TypeAcknowledgeKeepAlive {
		k.retries = min(k.retries+1, KeepAliveMaxRetryCount)
	}
}
